package feed

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
)

type memoryReader struct {
	follows map[int64][]int64
	posts   []store.Post
	users   map[int64]store.User
}

func (r *memoryReader) ListFollowingIDs(_ context.Context, userID int64) ([]int64, error) {
	return r.follows[userID], nil
}

func (r *memoryReader) ListFollowerIDs(_ context.Context, userID int64) ([]int64, error) {
	followers := []int64{}
	for follower, following := range r.follows {
		if slices.Contains(following, userID) {
			followers = append(followers, follower)
		}
	}
	return followers, nil
}

func (r *memoryReader) ListPostsByAuthors(_ context.Context, authorIDs []int64) ([]store.Post, error) {
	posts := []store.Post{}
	for _, post := range r.posts {
		if slices.Contains(authorIDs, post.UserID) {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (r *memoryReader) ListUsersByIDs(_ context.Context, ids []int64) ([]store.User, error) {
	users := []store.User{}
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func TestGetFeedForUserIncludesOwnAndFollowedPosts(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := &memoryReader{
		follows: map[int64][]int64{5: {6, 7}},
		posts: []store.Post{
			{ID: 1, UserID: 5, Content: "post1", CreatedAt: base.Add(2 * time.Minute)},
			{ID: 2, UserID: 6, Content: "post2", CreatedAt: base.Add(time.Minute)},
			{ID: 3, UserID: 9, Content: "post3", CreatedAt: base.Add(3 * time.Minute)},
		},
	}
	engine, err := NewEngine(reader)
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}

	posts, err := engine.GetFeedForUser(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected feed error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != 1 || posts[1].ID != 2 {
		t.Fatalf("expected [post1, post2], got [%d, %d]", posts[0].ID, posts[1].ID)
	}
}

func TestGetFeedForUserBreaksTiesByAscendingID(t *testing.T) {
	instant := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := &memoryReader{
		follows: map[int64][]int64{1: {2}},
		posts: []store.Post{
			{ID: 12, UserID: 2, CreatedAt: instant},
			{ID: 10, UserID: 1, CreatedAt: instant},
			{ID: 11, UserID: 2, CreatedAt: instant.Add(-time.Hour)},
		},
	}
	engine, _ := NewEngine(reader)

	posts, err := engine.GetFeedForUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected feed error: %v", err)
	}
	got := []int64{posts[0].ID, posts[1].ID, posts[2].ID}
	if !slices.Equal(got, []int64{10, 12, 11}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestFollowersAndFollowingAreUnorderedSets(t *testing.T) {
	reader := &memoryReader{
		follows: map[int64][]int64{1: {2, 3}, 2: {3}},
		users: map[int64]store.User{
			1: {ID: 1, Username: "one", Password: "secret"},
			2: {ID: 2, Username: "two", Password: "secret"},
			3: {ID: 3, Username: "three", Password: "secret"},
		},
	}
	engine, _ := NewEngine(reader)

	followers, err := engine.GetFollowers(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected followers error: %v", err)
	}
	ids := []int64{}
	for _, user := range followers {
		ids = append(ids, user.ID)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []int64{1, 2}) {
		t.Fatalf("expected followers {1,2}, got %v", ids)
	}

	following, err := engine.GetFollowing(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected following error: %v", err)
	}
	if len(following) != 2 {
		t.Fatalf("expected 2 followed users, got %d", len(following))
	}
	payload, err := json.Marshal(following)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(payload), "secret") {
		t.Fatalf("password leaked in %s", payload)
	}
}

func TestNewEngineRequiresReader(t *testing.T) {
	if _, err := NewEngine(nil); err == nil {
		t.Fatalf("expected missing reader error")
	}
}
