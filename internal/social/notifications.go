package social

import (
	"context"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

const (
	opListNotifications = "social.list_notifications"
	opMarkRead          = "social.mark_notification_read"
	opMarkAllRead       = "social.mark_all_notifications_read"
	opUnreadCount       = "social.unread_count"
)

// ListNotifications returns the user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID int64) ([]store.Notification, error) {
	notifications, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, s.storeFailure(opListNotifications, err, "", zap.Int64("user_id", userID))
	}
	return notifications, nil
}

// MarkNotificationRead flags one notification as read. Read never reverts to unread.
func (s *Service) MarkNotificationRead(ctx context.Context, id int64) (store.Notification, error) {
	notification, err := s.store.MarkNotificationRead(ctx, id)
	if err != nil {
		return store.Notification{}, s.storeFailure(opMarkRead, err, "Notification not found", zap.Int64("notification_id", id))
	}
	return notification, nil
}

// MarkAllNotificationsRead reports how many notifications changed state.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, s.storeFailure(opMarkAllRead, err, "", zap.Int64("user_id", userID))
	}
	return updated, nil
}

// UnreadNotificationCount counts the unread notifications of userID.
func (s *Service) UnreadNotificationCount(ctx context.Context, userID int64) (int64, error) {
	count, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, s.storeFailure(opUnreadCount, err, "", zap.Int64("user_id", userID))
	}
	return count, nil
}
