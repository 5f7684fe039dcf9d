package social

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

const (
	opCreateEchoLink   = "social.create_echo_link"
	opGetEchoLink      = "social.get_echo_link"
	opUpdateEchoLink   = "social.update_echo_link"
	opListAnonymous    = "social.list_anonymous_messages"
	opSubmitAnonymous  = "social.submit_anonymous_message"
	opUpdateAnonymous  = "social.update_anonymous_message"
	maxAnonymousLength = 1000
	maxWelcomeLength   = 500
)

var linkIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

type CreateEchoLinkInput struct {
	UserID         int64
	LinkID         *string
	WelcomeMessage *string
	Active         *bool
}

// AnonymousMessageUpdate lists the mutable anonymous message fields.
type AnonymousMessageUpdate struct {
	Answered *bool
}

// CreateEchoLink gives the user their single echo link. The slug is generated
// when none is supplied and links start active unless told otherwise.
func (s *Service) CreateEchoLink(ctx context.Context, input CreateEchoLinkInput) (store.EchoLink, error) {
	if err := requirePositive(opCreateEchoLink, "userId", input.UserID); err != nil {
		return store.EchoLink{}, err
	}
	linkID := s.newLinkID()
	if input.LinkID != nil {
		linkID = strings.TrimSpace(*input.LinkID)
	}
	if !linkIDPattern.MatchString(linkID) {
		return store.EchoLink{}, validationError(opCreateEchoLink, "invalid_link_id", "Link id must be 3-64 letters, digits, dashes or underscores")
	}
	if input.WelcomeMessage != nil && len(*input.WelcomeMessage) > maxWelcomeLength {
		return store.EchoLink{}, validationError(opCreateEchoLink, "welcome_too_long", "Welcome message is too long")
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	if _, err := s.store.GetUser(ctx, input.UserID); err != nil {
		return store.EchoLink{}, s.storeFailure(opCreateEchoLink, err, "User not found", zap.Int64("user_id", input.UserID))
	}

	link, err := s.store.CreateEchoLink(ctx, store.NewEchoLink{
		UserID:         input.UserID,
		LinkID:         linkID,
		WelcomeMessage: input.WelcomeMessage,
		Active:         active,
	})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return store.EchoLink{}, newServiceError(opCreateEchoLink, "already_exists", ErrConflict, "User already has an echo link", err)
	case errors.Is(err, store.ErrLinkIDTaken):
		return store.EchoLink{}, newServiceError(opCreateEchoLink, "link_id_taken", ErrConflict, "Link id is already taken", err)
	case err != nil:
		return store.EchoLink{}, s.storeFailure(opCreateEchoLink, err, "", zap.Int64("user_id", input.UserID))
	}
	return link, nil
}

// GetEchoLinkForUser returns the single echo link owned by userID.
func (s *Service) GetEchoLinkForUser(ctx context.Context, userID int64) (store.EchoLink, error) {
	link, err := s.store.GetEchoLinkByUser(ctx, userID)
	if err != nil {
		return store.EchoLink{}, s.storeFailure(opGetEchoLink, err, "Echo link not found", zap.Int64("user_id", userID))
	}
	return link, nil
}

// GetEchoLinkBySlug resolves a public link slug.
func (s *Service) GetEchoLinkBySlug(ctx context.Context, linkID string) (store.EchoLink, error) {
	link, err := s.store.GetEchoLinkBySlug(ctx, linkID)
	if err != nil {
		return store.EchoLink{}, s.storeFailure(opGetEchoLink, err, "Echo link not found", zap.String("link_id", linkID))
	}
	return link, nil
}

// UpdateEchoLink applies a partial update to an echo link.
func (s *Service) UpdateEchoLink(ctx context.Context, id int64, update store.EchoLinkUpdate) (store.EchoLink, error) {
	if update.LinkID != nil {
		trimmed := strings.TrimSpace(*update.LinkID)
		if !linkIDPattern.MatchString(trimmed) {
			return store.EchoLink{}, validationError(opUpdateEchoLink, "invalid_link_id", "Link id must be 3-64 letters, digits, dashes or underscores")
		}
		update.LinkID = &trimmed
	}
	if update.WelcomeMessage != nil && len(*update.WelcomeMessage) > maxWelcomeLength {
		return store.EchoLink{}, validationError(opUpdateEchoLink, "welcome_too_long", "Welcome message is too long")
	}
	link, err := s.store.UpdateEchoLink(ctx, id, update)
	if errors.Is(err, store.ErrLinkIDTaken) {
		return store.EchoLink{}, newServiceError(opUpdateEchoLink, "link_id_taken", ErrConflict, "Link id is already taken", err)
	}
	if err != nil {
		return store.EchoLink{}, s.storeFailure(opUpdateEchoLink, err, "Echo link not found", zap.Int64("echo_link_id", id))
	}
	return link, nil
}

// ListAnonymousMessages returns the link's inbox, newest first.
func (s *Service) ListAnonymousMessages(ctx context.Context, echoLinkID int64) ([]store.AnonymousMessage, error) {
	if _, err := s.store.GetEchoLink(ctx, echoLinkID); err != nil {
		return nil, s.storeFailure(opListAnonymous, err, "Echo link not found", zap.Int64("echo_link_id", echoLinkID))
	}
	messages, err := s.store.ListAnonymousMessages(ctx, echoLinkID)
	if err != nil {
		return nil, s.storeFailure(opListAnonymous, err, "", zap.Int64("echo_link_id", echoLinkID))
	}
	return messages, nil
}

// SubmitAnonymousMessage stores a message for an active link and notifies its owner.
func (s *Service) SubmitAnonymousMessage(ctx context.Context, echoLinkID int64, content string) (store.AnonymousMessage, error) {
	if err := requirePositive(opSubmitAnonymous, "echoLinkId", echoLinkID); err != nil {
		return store.AnonymousMessage{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return store.AnonymousMessage{}, validationError(opSubmitAnonymous, "empty_content", "Message content is required")
	}
	if len(content) > maxAnonymousLength {
		return store.AnonymousMessage{}, validationError(opSubmitAnonymous, "content_too_long", "Message is too long")
	}
	link, err := s.store.GetEchoLink(ctx, echoLinkID)
	if err != nil {
		return store.AnonymousMessage{}, s.storeFailure(opSubmitAnonymous, err, "Echo link not found", zap.Int64("echo_link_id", echoLinkID))
	}
	message, err := s.store.CreateAnonymousMessage(ctx, echoLinkID, content)
	if errors.Is(err, store.ErrLinkInactive) {
		return store.AnonymousMessage{}, newServiceError(opSubmitAnonymous, "inactive_link", ErrValidation, "This echo link is not accepting messages", err)
	}
	if err != nil {
		return store.AnonymousMessage{}, s.storeFailure(opSubmitAnonymous, err, "Echo link not found", zap.Int64("echo_link_id", echoLinkID))
	}
	s.anonymousHooks.Run(ctx, s.logger, opSubmitAnonymous, AnonymousMessageEvent{Message: message, Link: link})
	return message, nil
}

// UpdateAnonymousMessage can mark a message answered but never unmark it.
func (s *Service) UpdateAnonymousMessage(ctx context.Context, id int64, update AnonymousMessageUpdate) (store.AnonymousMessage, error) {
	current, err := s.store.GetAnonymousMessage(ctx, id)
	if err != nil {
		return store.AnonymousMessage{}, s.storeFailure(opUpdateAnonymous, err, "Anonymous message not found", zap.Int64("message_id", id))
	}
	if update.Answered == nil || *update.Answered == current.Answered {
		return current, nil
	}
	if !*update.Answered {
		return store.AnonymousMessage{}, validationError(opUpdateAnonymous, "answered_revert", "An answered message cannot be marked unanswered")
	}
	message, err := s.store.MarkAnonymousMessageAnswered(ctx, id)
	if err != nil {
		return store.AnonymousMessage{}, s.storeFailure(opUpdateAnonymous, err, "Anonymous message not found", zap.Int64("message_id", id))
	}
	return message, nil
}
