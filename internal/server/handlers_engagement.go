package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type likeRequestPayload struct {
	UserID int64 `json:"userId"`
	PostID int64 `json:"postId"`
}

type commentRequestPayload struct {
	UserID  int64  `json:"userId"`
	PostID  int64  `json:"postId"`
	Content string `json:"content"`
}

type followRequestPayload struct {
	FollowerID  int64 `json:"followerId"`
	FollowingID int64 `json:"followingId"`
}

func (h *httpHandler) handleListLikes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	likes, err := h.service.ListLikes(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

func (h *httpHandler) handleLike(c *gin.Context) {
	var request likeRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	like, err := h.service.LikePost(c.Request.Context(), request.UserID, request.PostID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, like)
}

func (h *httpHandler) handleUnlike(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Unlike(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleListComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.service.ListComments(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *httpHandler) handleComment(c *gin.Context) {
	var request commentRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	comment, err := h.service.CommentOnPost(c.Request.Context(), request.UserID, request.PostID, request.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *httpHandler) handleDeleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteComment(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleFollow(c *gin.Context) {
	var request followRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	follow, err := h.service.Follow(c.Request.Context(), request.FollowerID, request.FollowingID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, follow)
}

func (h *httpHandler) handleUnfollow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Unfollow(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
