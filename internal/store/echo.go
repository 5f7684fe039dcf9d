package store

import (
	"context"
	"errors"
)

var (
	// ErrLinkIDTaken reports an echo link slug that another link already uses.
	ErrLinkIDTaken = errors.New("store: link id already in use")
	// ErrLinkInactive reports a submission against a deactivated echo link.
	ErrLinkInactive = errors.New("store: echo link is inactive")
)

type NewEchoLink struct {
	UserID         int64
	LinkID         string
	WelcomeMessage *string
	Active         bool
}

// EchoLinkUpdate lists the mutable echo link fields. Nil fields are left untouched.
type EchoLinkUpdate struct {
	LinkID         *string
	WelcomeMessage *string
	Active         *bool
}

// CreateEchoLink stores the link. A user owning a link already gets ErrDuplicate.
func (s *Store) CreateEchoLink(ctx context.Context, input NewEchoLink) (EchoLink, error) {
	var link EchoLink
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)
		owned, err := exists[EchoLink](db, "user_id = ?", input.UserID)
		if err != nil {
			return err
		}
		if owned {
			return ErrDuplicate
		}
		taken, err := exists[EchoLink](db, "link_id = ?", input.LinkID)
		if err != nil {
			return err
		}
		if taken {
			return ErrLinkIDTaken
		}
		link = EchoLink{
			UserID:         input.UserID,
			LinkID:         input.LinkID,
			WelcomeMessage: input.WelcomeMessage,
			Active:         input.Active,
			CreatedAt:      tx.now(),
		}
		return db.Create(&link).Error
	})
	if err != nil {
		return EchoLink{}, err
	}
	return link, nil
}

func (s *Store) GetEchoLink(ctx context.Context, id int64) (EchoLink, error) {
	return findByID[EchoLink](ctx, s, id)
}

// GetEchoLinkBySlug finds a link by its public slug.
func (s *Store) GetEchoLinkBySlug(ctx context.Context, linkID string) (EchoLink, error) {
	return take[EchoLink](s.conn(ctx), "link_id = ?", linkID)
}

// GetEchoLinkByUser returns the link owned by userID.
func (s *Store) GetEchoLinkByUser(ctx context.Context, userID int64) (EchoLink, error) {
	return take[EchoLink](s.conn(ctx).Order("id ASC"), "user_id = ?", userID)
}

// UpdateEchoLink applies the non-nil fields of update.
func (s *Store) UpdateEchoLink(ctx context.Context, id int64, update EchoLinkUpdate) (EchoLink, error) {
	var link EchoLink
	err := s.WithinTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)
		if _, err := tx.GetEchoLink(ctx, id); err != nil {
			return err
		}
		columns := map[string]any{}
		if update.LinkID != nil {
			taken, err := exists[EchoLink](db, "link_id = ? AND id <> ?", *update.LinkID, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrLinkIDTaken
			}
			columns["link_id"] = *update.LinkID
		}
		if update.WelcomeMessage != nil {
			columns["welcome_message"] = *update.WelcomeMessage
		}
		if update.Active != nil {
			columns["active"] = *update.Active
		}
		if len(columns) > 0 {
			if err := db.Model(&EchoLink{}).Where("id = ?", id).Updates(columns).Error; err != nil {
				return err
			}
		}
		var err error
		link, err = tx.GetEchoLink(ctx, id)
		return err
	})
	if err != nil {
		return EchoLink{}, err
	}
	return link, nil
}

// CreateAnonymousMessage stores a submission for an existing, active link.
func (s *Store) CreateAnonymousMessage(ctx context.Context, echoLinkID int64, content string) (AnonymousMessage, error) {
	link, err := s.GetEchoLink(ctx, echoLinkID)
	if err != nil {
		return AnonymousMessage{}, err
	}
	if !link.Active {
		return AnonymousMessage{}, ErrLinkInactive
	}
	message := AnonymousMessage{EchoLinkID: echoLinkID, Content: content, CreatedAt: s.now()}
	if err := s.conn(ctx).Create(&message).Error; err != nil {
		return AnonymousMessage{}, err
	}
	return message, nil
}

func (s *Store) GetAnonymousMessage(ctx context.Context, id int64) (AnonymousMessage, error) {
	return findByID[AnonymousMessage](ctx, s, id)
}

// ListAnonymousMessages returns the submissions of a link, newest first.
func (s *Store) ListAnonymousMessages(ctx context.Context, echoLinkID int64) ([]AnonymousMessage, error) {
	messages := []AnonymousMessage{}
	err := s.conn(ctx).Where("echo_link_id = ?", echoLinkID).Order("created_at DESC").Order("id DESC").Find(&messages).Error
	return messages, err
}

// MarkAnonymousMessageAnswered sets the answered flag. It never clears it.
func (s *Store) MarkAnonymousMessageAnswered(ctx context.Context, id int64) (AnonymousMessage, error) {
	if _, err := s.GetAnonymousMessage(ctx, id); err != nil {
		return AnonymousMessage{}, err
	}
	if err := s.conn(ctx).Model(&AnonymousMessage{}).Where("id = ?", id).Update("answered", true).Error; err != nil {
		return AnonymousMessage{}, err
	}
	return s.GetAnonymousMessage(ctx, id)
}
