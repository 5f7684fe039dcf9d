package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/gin-gonic/gin"
)

type createEchoLinkRequestPayload struct {
	UserID         int64   `json:"userId"`
	LinkID         *string `json:"linkId"`
	WelcomeMessage *string `json:"welcomeMessage"`
	Active         *bool   `json:"active"`
}

type echoLinkUpdatePayload struct {
	LinkID         *string `json:"linkId"`
	WelcomeMessage *string `json:"welcomeMessage"`
	Active         *bool   `json:"active"`
}

type anonymousMessageRequestPayload struct {
	EchoLinkID int64  `json:"echoLinkId"`
	Content    string `json:"content"`
}

type anonymousMessageUpdatePayload struct {
	Answered *bool `json:"answered"`
}

func (h *httpHandler) handleGetUserEchoLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	link, err := h.service.GetEchoLinkForUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *httpHandler) handleGetEchoLinkBySlug(c *gin.Context) {
	link, err := h.service.GetEchoLinkBySlug(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *httpHandler) handleCreateEchoLink(c *gin.Context) {
	var request createEchoLinkRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	link, err := h.service.CreateEchoLink(c.Request.Context(), social.CreateEchoLinkInput{
		UserID:         request.UserID,
		LinkID:         request.LinkID,
		WelcomeMessage: request.WelcomeMessage,
		Active:         request.Active,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *httpHandler) handleUpdateEchoLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var request echoLinkUpdatePayload
	if !bindStrictJSON(c, &request) {
		return
	}
	link, err := h.service.UpdateEchoLink(c.Request.Context(), id, store.EchoLinkUpdate{
		LinkID:         request.LinkID,
		WelcomeMessage: request.WelcomeMessage,
		Active:         request.Active,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *httpHandler) handleListAnonymousMessages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	messages, err := h.service.ListAnonymousMessages(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *httpHandler) handleSubmitAnonymousMessage(c *gin.Context) {
	var request anonymousMessageRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	message, err := h.service.SubmitAnonymousMessage(c.Request.Context(), request.EchoLinkID, request.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *httpHandler) handleUpdateAnonymousMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var request anonymousMessageUpdatePayload
	if !bindStrictJSON(c, &request) {
		return
	}
	message, err := h.service.UpdateAnonymousMessage(c.Request.Context(), id, social.AnonymousMessageUpdate{Answered: request.Answered})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}
