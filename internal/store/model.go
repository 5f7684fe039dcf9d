package store

import "time"

// NotificationType enumerates the events that produce a notification.
type NotificationType string

const (
	NotificationTypeLike             NotificationType = "like"
	NotificationTypeComment          NotificationType = "comment"
	NotificationTypeFollow           NotificationType = "follow"
	NotificationTypeMessage          NotificationType = "message"
	NotificationTypeAnonymousMessage NotificationType = "anonymous_message"
)

// Valid reports whether the type is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeLike, NotificationTypeComment, NotificationTypeFollow,
		NotificationTypeMessage, NotificationTypeAnonymousMessage:
		return true
	default:
		return false
	}
}

// User is a registered account. The password never leaves the server.
type User struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username    string    `gorm:"column:username;size:64;not null;uniqueIndex" json:"username"`
	Password    string    `gorm:"column:password;size:190;not null" json:"-"`
	DisplayName string    `gorm:"column:display_name;size:190;not null" json:"displayName"`
	Avatar      *string   `gorm:"column:avatar;size:512" json:"avatar"`
	Bio         *string   `gorm:"column:bio;type:text" json:"bio"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// Post is a piece of authored content shown in feeds.
type Post struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"column:user_id;not null;index" json:"userId"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	MediaURL  *string   `gorm:"column:media_url;size:1024" json:"mediaUrl"`
	MediaType *string   `gorm:"column:media_type;size:16" json:"mediaType"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Post) TableName() string {
	return "posts"
}

// Poll is attached to exactly one post.
type Poll struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PostID      int64     `gorm:"column:post_id;not null;index" json:"postId"`
	Question    string    `gorm:"column:question;type:text;not null" json:"question"`
	EndsAt      time.Time `gorm:"column:ends_at;not null" json:"endsAt"`
	IsAnonymous bool      `gorm:"column:is_anonymous;not null" json:"isAnonymous"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Poll) TableName() string {
	return "polls"
}

// PollOption is a selectable answer of a poll.
type PollOption struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PollID    int64     `gorm:"column:poll_id;not null;index" json:"pollId"`
	Text      string    `gorm:"column:text;type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (PollOption) TableName() string {
	return "poll_options"
}

// PollVote records one user's choice in a poll.
type PollVote struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PollID    int64     `gorm:"column:poll_id;not null;index:idx_poll_votes_poll_user,priority:1" json:"pollId"`
	OptionID  int64     `gorm:"column:option_id;not null" json:"optionId"`
	UserID    int64     `gorm:"column:user_id;not null;index:idx_poll_votes_poll_user,priority:2" json:"userId"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (PollVote) TableName() string {
	return "poll_votes"
}

// Like marks a post as liked by a user.
type Like struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"column:user_id;not null;index:idx_likes_user_post,priority:1" json:"userId"`
	PostID    int64     `gorm:"column:post_id;not null;index:idx_likes_user_post,priority:2;index" json:"postId"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Like) TableName() string {
	return "likes"
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"column:post_id;not null;index" json:"postId"`
	UserID    int64     `gorm:"column:user_id;not null" json:"userId"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Follow is a directed edge from FollowerID to FollowingID.
type Follow struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FollowerID  int64     `gorm:"column:follower_id;not null;index:idx_follows_pair,priority:1" json:"followerId"`
	FollowingID int64     `gorm:"column:following_id;not null;index:idx_follows_pair,priority:2;index" json:"followingId"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Follow) TableName() string {
	return "follows"
}

// Conversation groups participants exchanging direct messages.
type Conversation struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      *string   `gorm:"column:name;size:190" json:"name"`
	IsGroup   bool      `gorm:"column:is_group;not null" json:"isGroup"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Conversation) TableName() string {
	return "conversations"
}

// ConversationParticipant links a user to a conversation.
type ConversationParticipant struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ConversationID int64     `gorm:"column:conversation_id;not null;index:idx_participants_conversation_user,priority:1" json:"conversationId"`
	UserID         int64     `gorm:"column:user_id;not null;index:idx_participants_conversation_user,priority:2;index" json:"userId"`
	CreatedAt      time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

// Message is an immutable chat line inside a conversation.
type Message struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ConversationID int64     `gorm:"column:conversation_id;not null;index" json:"conversationId"`
	SenderID       int64     `gorm:"column:sender_id;not null" json:"senderId"`
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Message) TableName() string {
	return "messages"
}

// EchoLink is a public slug that accepts anonymous messages for its owner.
type EchoLink struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"column:user_id;not null;index" json:"userId"`
	LinkID         string    `gorm:"column:link_id;size:190;not null;uniqueIndex" json:"linkId"`
	WelcomeMessage *string   `gorm:"column:welcome_message;type:text" json:"welcomeMessage"`
	Active         bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt      time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (EchoLink) TableName() string {
	return "echo_links"
}

// AnonymousMessage is a message submitted through an echo link.
type AnonymousMessage struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EchoLinkID int64     `gorm:"column:echo_link_id;not null;index" json:"echoLinkId"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	Answered   bool      `gorm:"column:answered;not null" json:"answered"`
	CreatedAt  time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (AnonymousMessage) TableName() string {
	return "anonymous_messages"
}

// Notification is a durable record addressed to a single user.
type Notification struct {
	ID          int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      int64            `gorm:"column:user_id;not null;index" json:"userId"`
	Type        NotificationType `gorm:"column:type;size:32;not null" json:"type"`
	Content     string           `gorm:"column:content;type:text;not null" json:"content"`
	ReferenceID *int64           `gorm:"column:reference_id" json:"referenceId"`
	Read        bool             `gorm:"column:read;not null" json:"read"`
	CreatedAt   time.Time        `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// Session backs an issued session token. Tokens whose session row is gone are rejected.
type Session struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Session) TableName() string {
	return "sessions"
}

// Models lists every persisted entity for schema migration.
func Models() []any {
	return []any{
		&User{},
		&Post{},
		&Poll{},
		&PollOption{},
		&PollVote{},
		&Like{},
		&Comment{},
		&Follow{},
		&Conversation{},
		&ConversationParticipant{},
		&Message{},
		&EchoLink{},
		&AnonymousMessage{},
		&Notification{},
		&Session{},
	}
}
