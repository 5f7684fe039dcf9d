package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/gin-gonic/gin"
)

type createConversationRequestPayload struct {
	Name           *string `json:"name"`
	IsGroup        bool    `json:"isGroup"`
	ParticipantIDs []int64 `json:"participantIds"`
}

type conversationResponsePayload struct {
	store.Conversation
	Participants []store.ConversationParticipant `json:"participants"`
}

type addParticipantRequestPayload struct {
	ConversationID int64 `json:"conversationId"`
	UserID         int64 `json:"userId"`
}

type sendMessageRequestPayload struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Content        string `json:"content"`
}

func (h *httpHandler) handleCreateConversation(c *gin.Context) {
	var request createConversationRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	details, err := h.service.CreateConversation(c.Request.Context(), social.CreateConversationInput{
		Name:           request.Name,
		IsGroup:        request.IsGroup,
		ParticipantIDs: request.ParticipantIDs,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversationResponsePayload{Conversation: details.Conversation, Participants: details.Participants})
}

func (h *httpHandler) handleGetConversation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conversation, err := h.service.GetConversation(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (h *httpHandler) handleListParticipants(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	participants, err := h.service.ListParticipants(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

func (h *httpHandler) handleAddParticipant(c *gin.Context) {
	var request addParticipantRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	participant, err := h.service.AddParticipant(c.Request.Context(), request.ConversationID, request.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, participant)
}

func (h *httpHandler) handleListConversations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conversations, err := h.service.ListConversationsForUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *httpHandler) handleListMessages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	messages, err := h.service.ListMessages(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// handleSendMessage runs the same pipeline as a realtime send: persist, push, notify.
func (h *httpHandler) handleSendMessage(c *gin.Context) {
	var request sendMessageRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	message, err := h.service.SendMessage(c.Request.Context(), request.SenderID, request.ConversationID, request.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}
