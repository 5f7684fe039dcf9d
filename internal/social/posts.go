package social

import (
	"context"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

const (
	opCreatePost   = "social.create_post"
	opGetPost      = "social.get_post"
	opListPosts    = "social.list_posts"
	opFeed         = "social.feed"
	opDeletePost   = "social.delete_post"
	opCreatePoll   = "social.create_poll"
	opAddOption    = "social.add_poll_option"
	opListPolls    = "social.list_polls"
	opListOptions  = "social.list_poll_options"
	opListVotes    = "social.list_poll_votes"
	opVote         = "social.vote"
	minPollOptions = 2
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

type PollInput struct {
	Question    string
	EndsAt      time.Time
	IsAnonymous bool
	Options     []string
}

type CreatePostInput struct {
	UserID    int64
	Content   string
	MediaURL  *string
	MediaType *string
	Poll      *PollInput
}

// PostDetails is a post together with the poll created alongside it, if any.
type PostDetails struct {
	Post    store.Post
	Poll    *store.Poll
	Options []store.PollOption
}

// PollDetails is a poll and its options.
type PollDetails struct {
	Poll    store.Poll
	Options []store.PollOption
}

// CreatePost stores the post and its optional poll in one transaction.
func (s *Service) CreatePost(ctx context.Context, input CreatePostInput) (PostDetails, error) {
	if err := requirePositive(opCreatePost, "userId", input.UserID); err != nil {
		return PostDetails{}, err
	}
	content := strings.TrimSpace(input.Content)
	hasMedia := input.MediaURL != nil && strings.TrimSpace(*input.MediaURL) != ""
	if content == "" && !hasMedia {
		return PostDetails{}, validationError(opCreatePost, "empty_post", "Post content is required")
	}
	if input.MediaType != nil {
		if *input.MediaType != MediaTypeImage && *input.MediaType != MediaTypeVideo {
			return PostDetails{}, validationError(opCreatePost, "invalid_media_type", "Media type must be image or video")
		}
		if !hasMedia {
			return PostDetails{}, validationError(opCreatePost, "missing_media_url", "Media type requires a media URL")
		}
	}
	var poll *store.NewPoll
	if input.Poll != nil {
		normalized, err := normalizePoll(opCreatePost, 0, *input.Poll)
		if err != nil {
			return PostDetails{}, err
		}
		poll = &normalized
	}
	if _, err := s.store.GetUser(ctx, input.UserID); err != nil {
		return PostDetails{}, s.storeFailure(opCreatePost, err, "User not found", zap.Int64("user_id", input.UserID))
	}

	var details PostDetails
	err := s.store.WithinTransaction(ctx, func(tx *store.Store) error {
		post, err := tx.CreatePost(ctx, store.NewPost{
			UserID:    input.UserID,
			Content:   content,
			MediaURL:  input.MediaURL,
			MediaType: input.MediaType,
		})
		if err != nil {
			return err
		}
		details.Post = post
		if poll == nil {
			return nil
		}
		poll.PostID = post.ID
		created, options, err := tx.CreatePoll(ctx, *poll)
		if err != nil {
			return err
		}
		details.Poll = &created
		details.Options = options
		return nil
	})
	if err != nil {
		return PostDetails{}, s.storeFailure(opCreatePost, err, "Post not found", zap.Int64("user_id", input.UserID))
	}
	return details, nil
}

// GetPost returns the post or ErrNotFound.
func (s *Service) GetPost(ctx context.Context, id int64) (store.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, s.storeFailure(opGetPost, err, "Post not found", zap.Int64("post_id", id))
	}
	return post, nil
}

// ListPosts returns every post, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]store.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, s.storeFailure(opListPosts, err, "")
	}
	return posts, nil
}

// ListPostsByUser returns the posts authored by userID, newest first.
func (s *Service) ListPostsByUser(ctx context.Context, userID int64) ([]store.Post, error) {
	posts, err := s.store.ListPostsByUser(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(opListPosts, err, "", zap.Int64("user_id", userID))
	}
	return posts, nil
}

// GetFeed returns the home feed of userID, newest first.
func (s *Service) GetFeed(ctx context.Context, userID int64) ([]store.Post, error) {
	posts, err := s.feed.GetFeedForUser(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(opFeed, err, "", zap.Int64("user_id", userID))
	}
	return posts, nil
}

// DeletePost removes a post together with its likes, comments and polls.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	if err := s.store.DeletePost(ctx, id); err != nil {
		return s.storeFailure(opDeletePost, err, "Post not found", zap.Int64("post_id", id))
	}
	return nil
}

// CreatePoll attaches a poll with its options to an existing post.
func (s *Service) CreatePoll(ctx context.Context, postID int64, input PollInput) (PollDetails, error) {
	if err := requirePositive(opCreatePoll, "postId", postID); err != nil {
		return PollDetails{}, err
	}
	normalized, err := normalizePoll(opCreatePoll, postID, input)
	if err != nil {
		return PollDetails{}, err
	}
	poll, options, err := s.store.CreatePoll(ctx, normalized)
	if err != nil {
		return PollDetails{}, s.storeFailure(opCreatePoll, err, "Post not found", zap.Int64("post_id", postID))
	}
	return PollDetails{Poll: poll, Options: options}, nil
}

// AddPollOption appends an option to an existing poll.
func (s *Service) AddPollOption(ctx context.Context, pollID int64, text string) (store.PollOption, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.PollOption{}, validationError(opAddOption, "empty_option", "Option text is required")
	}
	if _, err := s.store.GetPoll(ctx, pollID); err != nil {
		return store.PollOption{}, s.storeFailure(opAddOption, err, "Poll not found", zap.Int64("poll_id", pollID))
	}
	option, err := s.store.CreatePollOption(ctx, pollID, text)
	if err != nil {
		return store.PollOption{}, s.storeFailure(opAddOption, err, "Poll not found", zap.Int64("poll_id", pollID))
	}
	return option, nil
}

// ListPollsByPost returns the polls attached to a post.
func (s *Service) ListPollsByPost(ctx context.Context, postID int64) ([]store.Poll, error) {
	polls, err := s.store.ListPollsByPost(ctx, postID)
	if err != nil {
		return nil, s.storeFailure(opListPolls, err, "", zap.Int64("post_id", postID))
	}
	return polls, nil
}

func (s *Service) ListPollOptions(ctx context.Context, pollID int64) ([]store.PollOption, error) {
	options, err := s.store.ListPollOptions(ctx, pollID)
	if err != nil {
		return nil, s.storeFailure(opListOptions, err, "", zap.Int64("poll_id", pollID))
	}
	return options, nil
}

func (s *Service) ListPollVotes(ctx context.Context, pollID int64) ([]store.PollVote, error) {
	votes, err := s.store.ListPollVotes(ctx, pollID)
	if err != nil {
		return nil, s.storeFailure(opListVotes, err, "", zap.Int64("poll_id", pollID))
	}
	return votes, nil
}

// Vote records the user's choice and replaces any earlier vote in the same poll.
func (s *Service) Vote(ctx context.Context, pollID, optionID, userID int64) (store.PollVote, error) {
	if err := requirePositive(opVote, "pollId", pollID); err != nil {
		return store.PollVote{}, err
	}
	if err := requirePositive(opVote, "optionId", optionID); err != nil {
		return store.PollVote{}, err
	}
	if err := requirePositive(opVote, "userId", userID); err != nil {
		return store.PollVote{}, err
	}
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return store.PollVote{}, s.storeFailure(opVote, err, "Poll not found", zap.Int64("poll_id", pollID))
	}
	if !s.clock().Before(poll.EndsAt) {
		return store.PollVote{}, validationError(opVote, "poll_closed", "Poll has ended")
	}
	vote, err := s.store.CastPollVote(ctx, pollID, optionID, userID)
	if err != nil {
		return store.PollVote{}, s.storeFailure(opVote, err, "Poll option not found", zap.Int64("poll_id", pollID))
	}
	return vote, nil
}

func normalizePoll(operation string, postID int64, input PollInput) (store.NewPoll, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return store.NewPoll{}, validationError(operation, "missing_question", "Poll question is required")
	}
	if input.EndsAt.IsZero() {
		return store.NewPoll{}, validationError(operation, "missing_end", "Poll end time is required")
	}
	options := make([]string, 0, len(input.Options))
	for _, option := range input.Options {
		option = strings.TrimSpace(option)
		if option == "" {
			return store.NewPoll{}, validationError(operation, "empty_option", "Poll options cannot be empty")
		}
		options = append(options, option)
	}
	if len(options) < minPollOptions {
		return store.NewPoll{}, validationError(operation, "too_few_options", "A poll needs at least two options")
	}
	return store.NewPoll{
		PostID:      postID,
		Question:    question,
		EndsAt:      input.EndsAt,
		IsAnonymous: input.IsAnonymous,
		Options:     options,
	}, nil
}
