package social

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

const (
	opCreateConversation = "social.create_conversation"
	opGetConversation    = "social.get_conversation"
	opListParticipants   = "social.list_participants"
	opAddParticipant     = "social.add_participant"
	opListConversations  = "social.list_conversations"
	opListMessages       = "social.list_messages"
	opSendMessage        = "social.send_message"
	maxMessageLength     = 4000
)

type CreateConversationInput struct {
	Name           *string
	IsGroup        bool
	ParticipantIDs []int64
}

// ConversationDetails is a conversation with its participant rows.
type ConversationDetails struct {
	Conversation store.Conversation
	Participants []store.ConversationParticipant
}

// CreateConversation writes the conversation and its participants atomically.
func (s *Service) CreateConversation(ctx context.Context, input CreateConversationInput) (ConversationDetails, error) {
	for _, id := range input.ParticipantIDs {
		if err := requirePositive(opCreateConversation, "participantIds", id); err != nil {
			return ConversationDetails{}, err
		}
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	users, err := s.store.ListUsersByIDs(ctx, input.ParticipantIDs)
	if err != nil {
		return ConversationDetails{}, s.storeFailure(opCreateConversation, err, "")
	}
	for _, id := range input.ParticipantIDs {
		if !slices.ContainsFunc(users, func(user store.User) bool { return user.ID == id }) {
			return ConversationDetails{}, newServiceError(opCreateConversation, "unknown_participant", ErrNotFound, "User not found", nil)
		}
	}
	conversation, participants, err := s.store.CreateConversation(ctx, store.NewConversation{
		Name:           input.Name,
		IsGroup:        input.IsGroup,
		ParticipantIDs: input.ParticipantIDs,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return ConversationDetails{}, newServiceError(opCreateConversation, "duplicate_participant", ErrConflict, "Duplicate participant", err)
	}
	if err != nil {
		return ConversationDetails{}, s.storeFailure(opCreateConversation, err, "")
	}
	return ConversationDetails{Conversation: conversation, Participants: participants}, nil
}

// GetConversation returns the conversation or ErrNotFound.
func (s *Service) GetConversation(ctx context.Context, id int64) (store.Conversation, error) {
	conversation, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return store.Conversation{}, s.storeFailure(opGetConversation, err, "Conversation not found", zap.Int64("conversation_id", id))
	}
	return conversation, nil
}

// ListParticipants returns the participant rows of a conversation.
func (s *Service) ListParticipants(ctx context.Context, conversationID int64) ([]store.ConversationParticipant, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, s.storeFailure(opListParticipants, err, "", zap.Int64("conversation_id", conversationID))
	}
	return participants, nil
}

// AddParticipant rejects a user that already belongs to the conversation.
func (s *Service) AddParticipant(ctx context.Context, conversationID, userID int64) (store.ConversationParticipant, error) {
	if err := requirePositive(opAddParticipant, "conversationId", conversationID); err != nil {
		return store.ConversationParticipant{}, err
	}
	if err := requirePositive(opAddParticipant, "userId", userID); err != nil {
		return store.ConversationParticipant{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return store.ConversationParticipant{}, s.storeFailure(opAddParticipant, err, "User not found", zap.Int64("user_id", userID))
	}
	participant, err := s.store.AddParticipant(ctx, conversationID, userID)
	if errors.Is(err, store.ErrDuplicate) {
		return store.ConversationParticipant{}, newServiceError(opAddParticipant, "duplicate", ErrConflict, "User is already a participant", err)
	}
	if err != nil {
		return store.ConversationParticipant{}, s.storeFailure(opAddParticipant, err, "Conversation not found", zap.Int64("conversation_id", conversationID))
	}
	return participant, nil
}

// ListConversationsForUser returns the user's conversations, newest first.
func (s *Service) ListConversationsForUser(ctx context.Context, userID int64) ([]store.Conversation, error) {
	conversations, err := s.store.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(opListConversations, err, "", zap.Int64("user_id", userID))
	}
	return conversations, nil
}

// ListMessages returns the history of a conversation, oldest first.
func (s *Service) ListMessages(ctx context.Context, conversationID int64) ([]store.Message, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, s.storeFailure(opListMessages, err, "Conversation not found", zap.Int64("conversation_id", conversationID))
	}
	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, s.storeFailure(opListMessages, err, "", zap.Int64("conversation_id", conversationID))
	}
	return messages, nil
}

// SendMessage persists a chat message, pushes it to every connected recipient
// and then runs the AfterSend hooks. Only participants may send. A recipient
// without a live connection is skipped by the push and still notified.
func (s *Service) SendMessage(ctx context.Context, senderID, conversationID int64, content string) (store.Message, error) {
	if err := requirePositive(opSendMessage, "conversationId", conversationID); err != nil {
		return store.Message{}, err
	}
	if err := requirePositive(opSendMessage, "senderId", senderID); err != nil {
		return store.Message{}, err
	}
	if strings.TrimSpace(content) == "" {
		return store.Message{}, validationError(opSendMessage, "empty_content", "Message content is required")
	}
	if len(content) > maxMessageLength {
		return store.Message{}, validationError(opSendMessage, "content_too_long", "Message is too long")
	}

	fields := []zap.Field{zap.Int64("conversation_id", conversationID), zap.Int64("sender_id", senderID)}
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return store.Message{}, s.storeFailure(opSendMessage, err, "Conversation not found", fields...)
	}
	participants, err := s.store.ListParticipantIDs(ctx, conversationID)
	if err != nil {
		return store.Message{}, s.storeFailure(opSendMessage, err, "", fields...)
	}
	if !slices.Contains(participants, senderID) {
		return store.Message{}, validationError(opSendMessage, "not_participant", "Sender is not a participant of this conversation")
	}

	message, err := s.store.CreateMessage(ctx, conversationID, senderID, content)
	if err != nil {
		return store.Message{}, s.storeFailure(opSendMessage, err, "Conversation not found", fields...)
	}

	recipients := recipientsOf(participants, senderID)
	delivered := s.push(message, recipients)
	s.sendHooks.Run(ctx, s.logger, opSendMessage, MessageEvent{
		Message:    message,
		Recipients: recipients,
		Delivered:  delivered,
	})
	return message, nil
}

func (s *Service) push(message store.Message, recipients []int64) []int64 {
	delivered := make([]int64, 0, len(recipients))
	if s.pusher == nil {
		return delivered
	}
	for _, recipient := range recipients {
		if s.pusher.PushMessage(recipient, message) {
			delivered = append(delivered, recipient)
			continue
		}
		s.logger.Debug("live delivery missed",
			zap.Int64("message_id", message.ID),
			zap.Int64("user_id", recipient))
	}
	return delivered
}

// recipientsOf returns the distinct participants other than the sender.
func recipientsOf(participants []int64, senderID int64) []int64 {
	recipients := make([]int64, 0, len(participants))
	for _, id := range participants {
		if id == senderID || slices.Contains(recipients, id) {
			continue
		}
		recipients = append(recipients, id)
	}
	return recipients
}
