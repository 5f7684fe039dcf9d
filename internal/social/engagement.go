package social

import (
	"context"
	"errors"
	"strings"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

const (
	opLike           = "social.like"
	opListLikes      = "social.list_likes"
	opUnlike         = "social.unlike"
	opComment        = "social.comment"
	opListComments   = "social.list_comments"
	opDeleteComment  = "social.delete_comment"
	opFollow         = "social.follow"
	opUnfollow       = "social.unfollow"
	maxCommentLength = 2000
)

// LikePost records the like and notifies the post owner. A repeated like is a conflict.
func (s *Service) LikePost(ctx context.Context, userID, postID int64) (store.Like, error) {
	if err := requirePositive(opLike, "userId", userID); err != nil {
		return store.Like{}, err
	}
	if err := requirePositive(opLike, "postId", postID); err != nil {
		return store.Like{}, err
	}
	if err := s.requireUser(ctx, opLike, userID); err != nil {
		return store.Like{}, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.Like{}, s.storeFailure(opLike, err, "Post not found", zap.Int64("post_id", postID))
	}
	like, err := s.store.CreateLike(ctx, userID, postID)
	if errors.Is(err, store.ErrDuplicate) {
		return store.Like{}, newServiceError(opLike, "duplicate", ErrConflict, "Post already liked", err)
	}
	if err != nil {
		return store.Like{}, s.storeFailure(opLike, err, "Post not found", zap.Int64("post_id", postID))
	}
	s.likeHooks.Run(ctx, s.logger, opLike, LikeEvent{Like: like, Post: post})
	return like, nil
}

// ListLikes returns the likes on a post.
func (s *Service) ListLikes(ctx context.Context, postID int64) ([]store.Like, error) {
	likes, err := s.store.ListLikesByPost(ctx, postID)
	if err != nil {
		return nil, s.storeFailure(opListLikes, err, "", zap.Int64("post_id", postID))
	}
	return likes, nil
}

// Unlike removes a like by id.
func (s *Service) Unlike(ctx context.Context, likeID int64) error {
	if err := s.store.DeleteLike(ctx, likeID); err != nil {
		return s.storeFailure(opUnlike, err, "Like not found", zap.Int64("like_id", likeID))
	}
	return nil
}

// CommentOnPost stores the comment and notifies the post owner.
func (s *Service) CommentOnPost(ctx context.Context, userID, postID int64, content string) (store.Comment, error) {
	if err := requirePositive(opComment, "userId", userID); err != nil {
		return store.Comment{}, err
	}
	if err := requirePositive(opComment, "postId", postID); err != nil {
		return store.Comment{}, err
	}
	if strings.TrimSpace(content) == "" {
		return store.Comment{}, validationError(opComment, "empty_content", "Comment content is required")
	}
	if len(content) > maxCommentLength {
		return store.Comment{}, validationError(opComment, "content_too_long", "Comment is too long")
	}
	if err := s.requireUser(ctx, opComment, userID); err != nil {
		return store.Comment{}, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.Comment{}, s.storeFailure(opComment, err, "Post not found", zap.Int64("post_id", postID))
	}
	comment, err := s.store.CreateComment(ctx, userID, postID, content)
	if err != nil {
		return store.Comment{}, s.storeFailure(opComment, err, "Post not found", zap.Int64("post_id", postID))
	}
	s.commentHooks.Run(ctx, s.logger, opComment, CommentEvent{Comment: comment, Post: post})
	return comment, nil
}

// ListComments returns a post's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, postID int64) ([]store.Comment, error) {
	comments, err := s.store.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, s.storeFailure(opListComments, err, "", zap.Int64("post_id", postID))
	}
	return comments, nil
}

func (s *Service) DeleteComment(ctx context.Context, commentID int64) error {
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return s.storeFailure(opDeleteComment, err, "Comment not found", zap.Int64("comment_id", commentID))
	}
	return nil
}

// Follow adds the edge followerID -> followingID and notifies the followed user.
func (s *Service) Follow(ctx context.Context, followerID, followingID int64) (store.Follow, error) {
	if err := requirePositive(opFollow, "followerId", followerID); err != nil {
		return store.Follow{}, err
	}
	if err := requirePositive(opFollow, "followingId", followingID); err != nil {
		return store.Follow{}, err
	}
	if followerID == followingID {
		return store.Follow{}, validationError(opFollow, "self_follow", "Cannot follow yourself")
	}
	if err := s.requireUser(ctx, opFollow, followerID); err != nil {
		return store.Follow{}, err
	}
	if err := s.requireUser(ctx, opFollow, followingID); err != nil {
		return store.Follow{}, err
	}
	follow, err := s.store.CreateFollow(ctx, followerID, followingID)
	if errors.Is(err, store.ErrDuplicate) {
		return store.Follow{}, newServiceError(opFollow, "duplicate", ErrConflict, "Already following this user", err)
	}
	if err != nil {
		return store.Follow{}, s.storeFailure(opFollow, err, "User not found", zap.Int64("user_id", followingID))
	}
	s.followHooks.Run(ctx, s.logger, opFollow, follow)
	return follow, nil
}

// Unfollow removes a follow edge by id.
func (s *Service) Unfollow(ctx context.Context, followID int64) error {
	if err := s.store.DeleteFollow(ctx, followID); err != nil {
		return s.storeFailure(opUnfollow, err, "Follow not found", zap.Int64("follow_id", followID))
	}
	return nil
}

// requireUser reports ErrNotFound when userID names no account.
func (s *Service) requireUser(ctx context.Context, op string, userID int64) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return s.storeFailure(op, err, "User not found", zap.Int64("user_id", userID))
	}
	return nil
}
