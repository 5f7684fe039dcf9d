package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/auth"
	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerRequestPayload struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	DisplayName string  `json:"displayName"`
	Avatar      *string `json:"avatar"`
	Bio         *string `json:"bio"`
}

type loginRequestPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponsePayload struct {
	User      store.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

type userUpdatePayload struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	Avatar      *string `json:"avatar"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	user, err := h.service.Register(c.Request.Context(), social.RegisterInput{
		Username:    request.Username,
		Password:    request.Password,
		DisplayName: request.DisplayName,
		Avatar:      request.Avatar,
		Bio:         request.Bio,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	user, err := h.service.Authenticate(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	issued, err := h.sessions.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to issue session", zap.Int64("user_id", user.ID), zap.Error(err))
		respondMessage(c, http.StatusInternalServerError, messageInternal)
		return
	}
	c.JSON(http.StatusOK, loginResponsePayload{User: user, Token: issued.Token, ExpiresAt: issued.ExpiresAt})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	token, err := auth.BearerToken(c.Request)
	if err != nil {
		respondMessage(c, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
		if isSessionRejection(err) {
			h.logger.Info("logout with unusable token", zap.Error(err))
			respondMessage(c, http.StatusUnauthorized, messageUnauthorized)
			return
		}
		h.logger.Error("failed to revoke session", zap.Error(err))
		respondMessage(c, http.StatusInternalServerError, messageInternal)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	userID, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		if isSessionRejection(err) {
			h.logger.Info("session validation failed", zap.Error(err))
		} else {
			h.logger.Warn("session validation failed", zap.Error(err))
		}
		respondMessage(c, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// isSessionRejection reports whether err is an expected token or session refusal.
func isSessionRejection(err error) bool {
	return errors.Is(err, auth.ErrMissingSessionToken) ||
		errors.Is(err, auth.ErrInvalidSessionToken) ||
		errors.Is(err, auth.ErrExpiredSessionToken) ||
		errors.Is(err, auth.ErrRevokedSession) ||
		errors.Is(err, auth.ErrSubjectMismatch) ||
		errors.Is(err, auth.ErrMissingSessionClaims)
}

func (h *httpHandler) handleSearchUsers(c *gin.Context) {
	users, err := h.service.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *httpHandler) handleGetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleUpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var request userUpdatePayload
	if !bindStrictJSON(c, &request) {
		return
	}
	user, err := h.service.UpdateUser(c.Request.Context(), id, store.UserUpdate{
		DisplayName: request.DisplayName,
		Avatar:      request.Avatar,
		Bio:         request.Bio,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleListFollowers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.service.GetFollowers(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *httpHandler) handleListFollowing(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.service.GetFollowing(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
