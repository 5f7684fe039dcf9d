package realtime

import "github.com/MarcoPoloResearchLab/echo/internal/store"

// Event types on the realtime channel. Frames of any other type are ignored.
const (
	EventAuth       = "auth"
	EventMessage    = "message"
	EventNewMessage = "new_message"
)

// inboundFrame is the union of every client to server frame.
type inboundFrame struct {
	Type           string  `json:"type"`
	UserID         *int64  `json:"userId"`
	Token          string  `json:"token"`
	ConversationID *int64  `json:"conversationId"`
	Content        *string `json:"content"`
}

// NewMessageEvent is pushed to every connected recipient of a chat message.
type NewMessageEvent struct {
	Type    string        `json:"type"`
	Message store.Message `json:"message"`
}

func newMessageEvent(message store.Message) NewMessageEvent {
	return NewMessageEvent{Type: EventNewMessage, Message: message}
}
