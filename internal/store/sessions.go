package store

import (
	"context"
	"time"
)

// CreateSession persists a session for userID that lives for ttl.
func (s *Store) CreateSession(ctx context.Context, id string, userID int64, ttl time.Duration) (Session, error) {
	now := s.now()
	session := Session{ID: id, UserID: userID, ExpiresAt: now.Add(ttl), CreatedAt: now}
	if err := s.conn(ctx).Create(&session).Error; err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	return take[Session](s.conn(ctx), "id = ?", id)
}

// DeleteSession removes a session and reports ErrNotFound when none matched.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result := s.conn(ctx).Where("id = ?", id).Delete(&Session{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions drops sessions that expired before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result := s.conn(ctx).Where("expires_at < ?", s.now()).Delete(&Session{})
	return result.RowsAffected, result.Error
}
