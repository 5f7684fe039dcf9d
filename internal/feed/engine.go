// Package feed composes read-side views over the follow graph.
package feed

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
)

var errMissingReader = errors.New("feed: reader is required")

// Reader is the subset of the entity store the engine queries.
type Reader interface {
	ListFollowingIDs(ctx context.Context, userID int64) ([]int64, error)
	ListFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	ListPostsByAuthors(ctx context.Context, authorIDs []int64) ([]store.Post, error)
	ListUsersByIDs(ctx context.Context, ids []int64) ([]store.User, error)
}

type Engine struct {
	reader Reader
}

// NewEngine returns an engine reading through reader.
func NewEngine(reader Reader) (*Engine, error) {
	if reader == nil {
		return nil, errMissingReader
	}
	return &Engine{reader: reader}, nil
}

// GetFeedForUser returns the user's own posts and the posts of everyone the user
// follows, newest first. Posts created at the same instant keep ascending id order.
func (e *Engine) GetFeedForUser(ctx context.Context, userID int64) ([]store.Post, error) {
	following, err := e.reader.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	authors := make([]int64, 0, len(following)+1)
	authors = append(authors, userID)
	for _, id := range following {
		if id != userID {
			authors = append(authors, id)
		}
	}
	posts, err := e.reader.ListPostsByAuthors(ctx, authors)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(posts, func(a, b store.Post) int {
		if order := b.CreatedAt.Compare(a.CreatedAt); order != 0 {
			return order
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return posts, nil
}

// GetFollowers returns the users following userID. The order is unspecified.
func (e *Engine) GetFollowers(ctx context.Context, userID int64) ([]store.User, error) {
	ids, err := e.reader.ListFollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.reader.ListUsersByIDs(ctx, ids)
}

// GetFollowing returns the users that userID follows. The order is unspecified.
func (e *Engine) GetFollowing(ctx context.Context, userID int64) ([]store.User, error) {
	ids, err := e.reader.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.reader.ListUsersByIDs(ctx, ids)
}
