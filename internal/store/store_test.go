package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type steppingClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(Models()...))
	clock := &steppingClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	entityStore, err := New(Config{Database: database, Clock: clock.Now})
	require.NoError(t, err)
	return entityStore
}

func createUser(t *testing.T, s *Store, username string) User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), NewUser{Username: username, Password: "pw", DisplayName: username})
	require.NoError(t, err)
	return user
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestMessageIdentifiersAreMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	conversation, _, err := s.CreateConversation(ctx, NewConversation{ParticipantIDs: []int64{alice.ID}})
	require.NoError(t, err)

	var previous int64
	for i := 0; i < 5; i++ {
		message, err := s.CreateMessage(ctx, conversation.ID, alice.ID, "hello")
		require.NoError(t, err)
		require.Greater(t, message.ID, previous)
		previous = message.ID
	}

	messages, err := s.ListMessages(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	require.True(t, messages[0].ID < messages[4].ID, "messages must be oldest first")
}

func TestCreateMessageRequiresConversation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateMessage(context.Background(), 42, 1, "hi")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateLikeRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := createUser(t, s, "author")
	fan := createUser(t, s, "fan")
	post, err := s.CreatePost(ctx, NewPost{UserID: author.ID, Content: "first"})
	require.NoError(t, err)

	_, err = s.CreateLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	_, err = s.CreateLike(ctx, fan.ID, post.ID)
	require.ErrorIs(t, err, ErrDuplicate)

	likes, err := s.ListLikesByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
}

func TestCreatePollIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.CreatePoll(ctx, NewPoll{PostID: 99, Question: "q", EndsAt: time.Now(), Options: []string{"a", "b"}})
	require.ErrorIs(t, err, ErrNotFound)

	var polls int64
	require.NoError(t, s.db.Model(&Poll{}).Count(&polls).Error)
	require.Zero(t, polls)

	author := createUser(t, s, "author")
	post, err := s.CreatePost(ctx, NewPost{UserID: author.ID, Content: "vote"})
	require.NoError(t, err)
	poll, options, err := s.CreatePoll(ctx, NewPoll{PostID: post.ID, Question: "q", EndsAt: time.Now(), Options: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, options, 2)
	for _, option := range options {
		require.Equal(t, poll.ID, option.PollID)
	}
}

func TestCastPollVoteReplacesPreviousVote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	voter := createUser(t, s, "voter")
	post, err := s.CreatePost(ctx, NewPost{UserID: voter.ID, Content: "vote"})
	require.NoError(t, err)
	poll, options, err := s.CreatePoll(ctx, NewPoll{PostID: post.ID, Question: "q", EndsAt: time.Now(), Options: []string{"a", "b"}})
	require.NoError(t, err)

	_, err = s.CastPollVote(ctx, poll.ID, options[0].ID, voter.ID)
	require.NoError(t, err)
	_, err = s.CastPollVote(ctx, poll.ID, options[1].ID, voter.ID)
	require.NoError(t, err)

	votes, err := s.ListPollVotes(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.Equal(t, options[1].ID, votes[0].OptionID)

	_, err = s.CastPollVote(ctx, poll.ID, options[1].ID+100, voter.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePostCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := createUser(t, s, "author")
	post, err := s.CreatePost(ctx, NewPost{UserID: author.ID, Content: "bye"})
	require.NoError(t, err)
	_, err = s.CreateLike(ctx, author.ID, post.ID)
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, author.ID, post.ID, "note")
	require.NoError(t, err)
	poll, options, err := s.CreatePoll(ctx, NewPoll{PostID: post.ID, Question: "q", EndsAt: time.Now(), Options: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = s.CastPollVote(ctx, poll.ID, options[0].ID, author.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, post.ID))
	require.ErrorIs(t, s.DeletePost(ctx, post.ID), ErrNotFound)

	for _, model := range []any{&Like{}, &Comment{}, &Poll{}, &PollOption{}, &PollVote{}} {
		var count int64
		require.NoError(t, s.db.Model(model).Count(&count).Error)
		require.Zero(t, count, "%T rows must be removed", model)
	}
}

func TestCreateConversationRollsBackOnDuplicateParticipant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	_, _, err := s.CreateConversation(ctx, NewConversation{ParticipantIDs: []int64{alice.ID, alice.ID}})
	require.ErrorIs(t, err, ErrDuplicate)

	var conversations int64
	require.NoError(t, s.db.Model(&Conversation{}).Count(&conversations).Error)
	require.Zero(t, conversations)
}

func TestListConversationsByUserNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	first, _, err := s.CreateConversation(ctx, NewConversation{ParticipantIDs: []int64{alice.ID, bob.ID}})
	require.NoError(t, err)
	second, _, err := s.CreateConversation(ctx, NewConversation{ParticipantIDs: []int64{alice.ID}})
	require.NoError(t, err)

	conversations, err := s.ListConversationsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	require.Equal(t, second.ID, conversations[0].ID)
	require.Equal(t, first.ID, conversations[1].ID)

	conversations, err = s.ListConversationsByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 1)

	ids, err := s.ListParticipantIDs(ctx, first.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{alice.ID, bob.ID}, ids)
}

func TestEchoLinkOnePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	other := createUser(t, s, "other")

	link, err := s.CreateEchoLink(ctx, NewEchoLink{UserID: owner.ID, LinkID: "ask-owner", Active: true})
	require.NoError(t, err)
	_, err = s.CreateEchoLink(ctx, NewEchoLink{UserID: owner.ID, LinkID: "again", Active: true})
	require.ErrorIs(t, err, ErrDuplicate)
	_, err = s.CreateEchoLink(ctx, NewEchoLink{UserID: other.ID, LinkID: "ask-owner", Active: true})
	require.ErrorIs(t, err, ErrLinkIDTaken)

	inactive := false
	updated, err := s.UpdateEchoLink(ctx, link.ID, EchoLinkUpdate{Active: &inactive})
	require.NoError(t, err)
	require.False(t, updated.Active)
	require.Equal(t, "ask-owner", updated.LinkID)

	_, err = s.CreateAnonymousMessage(ctx, link.ID, "hello?")
	require.ErrorIs(t, err, ErrLinkInactive)
}

func TestNotificationReadIsMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	target := createUser(t, s, "target")

	first, err := s.CreateNotification(ctx, NewNotification{UserID: target.ID, Type: NotificationTypeFollow, Content: "Someone followed you"})
	require.NoError(t, err)
	require.False(t, first.Read)
	_, err = s.CreateNotification(ctx, NewNotification{UserID: target.ID, Type: NotificationTypeLike, Content: "Someone liked your post"})
	require.NoError(t, err)

	read, err := s.MarkNotificationRead(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	updated, err := s.MarkAllNotificationsRead(ctx, target.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	notifications, err := s.ListNotifications(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.Greater(t, notifications[0].ID, notifications[1].ID)
	for _, notification := range notifications {
		require.True(t, notification.Read)
	}

	_, err = s.MarkNotificationRead(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchUsersIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	marco, err := s.CreateUser(ctx, NewUser{Username: "Marco", Password: "pw", DisplayName: "Polo Explorer"})
	require.NoError(t, err)
	createUser(t, s, "unrelated")

	matches, err := s.SearchUsers(ctx, "EXPLO")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, marco.ID, matches[0].ID)

	matches, err = s.SearchUsers(ctx, "   ")
	require.NoError(t, err)
	require.Empty(t, matches)

	matches, err = s.SearchUsers(ctx, "%")
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestUpdateUserOnlyTouchesGivenFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "someone")
	bio := "hello there"

	updated, err := s.UpdateUser(ctx, user.ID, UserUpdate{Bio: &bio})
	require.NoError(t, err)
	require.Equal(t, "someone", updated.DisplayName)
	require.NotNil(t, updated.Bio)
	require.Equal(t, bio, *updated.Bio)
	require.Equal(t, user.CreatedAt.Unix(), updated.CreatedAt.Unix())

	_, err = s.UpdateUser(ctx, 404, UserUpdate{Bio: &bio})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionsExpire(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "session")

	_, err := s.CreateSession(ctx, "expired", user.ID, -time.Hour)
	require.NoError(t, err)
	live, err := s.CreateSession(ctx, "live", user.ID, time.Hour)
	require.NoError(t, err)

	removed, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	stored, err := s.GetSession(ctx, live.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, stored.UserID)

	require.NoError(t, s.DeleteSession(ctx, live.ID))
	require.ErrorIs(t, s.DeleteSession(ctx, live.ID), ErrNotFound)
}
