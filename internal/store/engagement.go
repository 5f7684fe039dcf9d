package store

import "context"

// CreateLike records that userID likes postID. A second like for the same pair
// returns ErrDuplicate and writes nothing.
func (s *Store) CreateLike(ctx context.Context, userID, postID int64) (Like, error) {
	var like Like
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)
		if _, err := tx.GetPost(ctx, postID); err != nil {
			return err
		}
		found, err := exists[Like](db, "user_id = ? AND post_id = ?", userID, postID)
		if err != nil {
			return err
		}
		if found {
			return ErrDuplicate
		}
		like = Like{UserID: userID, PostID: postID, CreatedAt: tx.now()}
		return db.Create(&like).Error
	})
	if err != nil {
		return Like{}, err
	}
	return like, nil
}

// ListLikesByPost returns the likes of a post in insertion order.
func (s *Store) ListLikesByPost(ctx context.Context, postID int64) ([]Like, error) {
	likes := []Like{}
	err := s.conn(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&likes).Error
	return likes, err
}

func (s *Store) DeleteLike(ctx context.Context, id int64) error {
	return deleteByID[Like](s.conn(ctx), id)
}

// CreateComment inserts a comment on an existing post.
func (s *Store) CreateComment(ctx context.Context, userID, postID int64, content string) (Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return Comment{}, err
	}
	comment := Comment{PostID: postID, UserID: userID, Content: content, CreatedAt: s.now()}
	if err := s.conn(ctx).Create(&comment).Error; err != nil {
		return Comment{}, err
	}
	return comment, nil
}

// ListCommentsByPost returns the comments of a post, oldest first.
func (s *Store) ListCommentsByPost(ctx context.Context, postID int64) ([]Comment, error) {
	comments := []Comment{}
	err := s.conn(ctx).Where("post_id = ?", postID).Order("created_at ASC").Order("id ASC").Find(&comments).Error
	return comments, err
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	return deleteByID[Comment](s.conn(ctx), id)
}

// CreateFollow adds the edge followerID -> followingID, returning ErrDuplicate when it exists.
func (s *Store) CreateFollow(ctx context.Context, followerID, followingID int64) (Follow, error) {
	var follow Follow
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)
		found, err := exists[Follow](db, "follower_id = ? AND following_id = ?", followerID, followingID)
		if err != nil {
			return err
		}
		if found {
			return ErrDuplicate
		}
		follow = Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: tx.now()}
		return db.Create(&follow).Error
	})
	if err != nil {
		return Follow{}, err
	}
	return follow, nil
}

func (s *Store) DeleteFollow(ctx context.Context, id int64) error {
	return deleteByID[Follow](s.conn(ctx), id)
}

// ListFollowingIDs returns the ids of the users that userID follows.
func (s *Store) ListFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := s.conn(ctx).Model(&Follow{}).Where("follower_id = ?", userID).Order("id ASC").Pluck("following_id", &ids).Error
	return ids, err
}

// ListFollowerIDs returns the ids of the users following userID.
func (s *Store) ListFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := s.conn(ctx).Model(&Follow{}).Where("following_id = ?", userID).Order("id ASC").Pluck("follower_id", &ids).Error
	return ids, err
}
