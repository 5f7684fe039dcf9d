package store

import (
	"context"
	"time"
)

// NewPost carries the client-controlled fields of a post.
type NewPost struct {
	UserID    int64
	Content   string
	MediaURL  *string
	MediaType *string
}

// NewPoll describes a poll and its options, which are always written together.
type NewPoll struct {
	PostID      int64
	Question    string
	EndsAt      time.Time
	IsAnonymous bool
	Options     []string
}

// CreatePost inserts a post stamped with the store clock.
func (s *Store) CreatePost(ctx context.Context, input NewPost) (Post, error) {
	post := Post{
		UserID:    input.UserID,
		Content:   input.Content,
		MediaURL:  input.MediaURL,
		MediaType: input.MediaType,
		CreatedAt: s.now(),
	}
	if err := s.conn(ctx).Create(&post).Error; err != nil {
		return Post{}, err
	}
	return post, nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (Post, error) {
	return findByID[Post](ctx, s, id)
}

// ListPosts returns every post, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	posts := []Post{}
	err := s.conn(ctx).Order("created_at DESC").Order("id ASC").Find(&posts).Error
	return posts, err
}

// ListPostsByUser returns the posts authored by userID, newest first.
func (s *Store) ListPostsByUser(ctx context.Context, userID int64) ([]Post, error) {
	posts := []Post{}
	err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id ASC").Find(&posts).Error
	return posts, err
}

// ListPostsByAuthors returns the posts of every author in authorIDs in id order.
func (s *Store) ListPostsByAuthors(ctx context.Context, authorIDs []int64) ([]Post, error) {
	posts := []Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}
	err := s.conn(ctx).Where("user_id IN ?", authorIDs).Order("id ASC").Find(&posts).Error
	return posts, err
}

// DeletePost removes the post together with its likes, comments and polls.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.WithinTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)
		if err := deleteByID[Post](db, id); err != nil {
			return err
		}
		var pollIDs []int64
		if err := db.Model(&Poll{}).Where("post_id = ?", id).Pluck("id", &pollIDs).Error; err != nil {
			return err
		}
		if len(pollIDs) > 0 {
			if err := db.Where("poll_id IN ?", pollIDs).Delete(&PollVote{}).Error; err != nil {
				return err
			}
			if err := db.Where("poll_id IN ?", pollIDs).Delete(&PollOption{}).Error; err != nil {
				return err
			}
			if err := db.Where("id IN ?", pollIDs).Delete(&Poll{}).Error; err != nil {
				return err
			}
		}
		if err := db.Where("post_id = ?", id).Delete(&Like{}).Error; err != nil {
			return err
		}
		return db.Where("post_id = ?", id).Delete(&Comment{}).Error
	})
}

// CreatePoll writes the poll and all of its options in one transaction.
func (s *Store) CreatePoll(ctx context.Context, input NewPoll) (Poll, []PollOption, error) {
	var (
		poll    Poll
		options []PollOption
	)
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		if _, err := tx.GetPost(ctx, input.PostID); err != nil {
			return err
		}
		poll = Poll{
			PostID:      input.PostID,
			Question:    input.Question,
			EndsAt:      input.EndsAt.UTC(),
			IsAnonymous: input.IsAnonymous,
			CreatedAt:   tx.now(),
		}
		if err := tx.conn(ctx).Create(&poll).Error; err != nil {
			return err
		}
		options = make([]PollOption, 0, len(input.Options))
		for _, text := range input.Options {
			option, err := tx.CreatePollOption(ctx, poll.ID, text)
			if err != nil {
				return err
			}
			options = append(options, option)
		}
		return nil
	})
	if err != nil {
		return Poll{}, nil, err
	}
	return poll, options, nil
}

// CreatePollOption adds an option to pollID.
func (s *Store) CreatePollOption(ctx context.Context, pollID int64, text string) (PollOption, error) {
	option := PollOption{PollID: pollID, Text: text, CreatedAt: s.now()}
	if err := s.conn(ctx).Create(&option).Error; err != nil {
		return PollOption{}, err
	}
	return option, nil
}

func (s *Store) GetPoll(ctx context.Context, id int64) (Poll, error) {
	return findByID[Poll](ctx, s, id)
}

func (s *Store) ListPollsByPost(ctx context.Context, postID int64) ([]Poll, error) {
	polls := []Poll{}
	err := s.conn(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&polls).Error
	return polls, err
}

// ListPollOptions returns the options of a poll in insertion order.
func (s *Store) ListPollOptions(ctx context.Context, pollID int64) ([]PollOption, error) {
	options := []PollOption{}
	err := s.conn(ctx).Where("poll_id = ?", pollID).Order("id ASC").Find(&options).Error
	return options, err
}

func (s *Store) ListPollVotes(ctx context.Context, pollID int64) ([]PollVote, error) {
	votes := []PollVote{}
	err := s.conn(ctx).Where("poll_id = ?", pollID).Order("id ASC").Find(&votes).Error
	return votes, err
}

// CastPollVote records the user's choice, replacing an earlier vote in the same poll.
// The option must belong to the poll; otherwise ErrNotFound is returned.
func (s *Store) CastPollVote(ctx context.Context, pollID, optionID, userID int64) (PollVote, error) {
	var vote PollVote
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)
		if _, err := take[PollOption](db, "id = ? AND poll_id = ?", optionID, pollID); err != nil {
			return err
		}
		if err := db.Where("poll_id = ? AND user_id = ?", pollID, userID).Delete(&PollVote{}).Error; err != nil {
			return err
		}
		vote = PollVote{PollID: pollID, OptionID: optionID, UserID: userID, CreatedAt: tx.now()}
		return db.Create(&vote).Error
	})
	if err != nil {
		return PollVote{}, err
	}
	return vote, nil
}
