package store

import "context"

// NewNotification carries the fields chosen by the emitter.
type NewNotification struct {
	UserID      int64
	Type        NotificationType
	Content     string
	ReferenceID *int64
}

// CreateNotification appends an unread notification.
func (s *Store) CreateNotification(ctx context.Context, input NewNotification) (Notification, error) {
	notification := Notification{
		UserID:      input.UserID,
		Type:        input.Type,
		Content:     input.Content,
		ReferenceID: input.ReferenceID,
		CreatedAt:   s.now(),
	}
	if err := s.conn(ctx).Create(&notification).Error; err != nil {
		return Notification{}, err
	}
	return notification, nil
}

func (s *Store) GetNotification(ctx context.Context, id int64) (Notification, error) {
	return findByID[Notification](ctx, s, id)
}

// ListNotifications returns the notifications addressed to userID, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID int64) ([]Notification, error) {
	notifications := []Notification{}
	err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&notifications).Error
	return notifications, err
}

// MarkNotificationRead flips the read flag on. Already read notifications are returned unchanged.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) (Notification, error) {
	if _, err := s.GetNotification(ctx, id); err != nil {
		return Notification{}, err
	}
	if err := s.conn(ctx).Model(&Notification{}).Where("id = ? AND read = ?", id, false).Update("read", true).Error; err != nil {
		return Notification{}, err
	}
	return s.GetNotification(ctx, id)
}

// MarkAllNotificationsRead marks every unread notification of userID and reports how many changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	result := s.conn(ctx).Model(&Notification{}).Where("user_id = ? AND read = ?", userID, false).Update("read", true)
	return result.RowsAffected, result.Error
}

// CountUnreadNotifications feeds the live unread counter.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&Notification{}).Where("user_id = ? AND read = ?", userID, false).Count(&count).Error
	return count, err
}
