package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type markAllReadResponsePayload struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

func (h *httpHandler) handleListNotifications(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notifications, err := h.service.ListNotifications(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *httpHandler) handleUnreadCount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	count, err := h.service.UnreadNotificationCount(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *httpHandler) handleMarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notification, err := h.service.MarkNotificationRead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (h *httpHandler) handleMarkAllRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	updated, err := h.service.MarkAllNotificationsRead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, markAllReadResponsePayload{Message: "All notifications marked as read", Updated: updated})
}
