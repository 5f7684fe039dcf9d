package server

import (
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/gin-gonic/gin"
)

type pollPayload struct {
	Question    string    `json:"question"`
	EndsAt      time.Time `json:"endsAt"`
	IsAnonymous bool      `json:"isAnonymous"`
	Options     []string  `json:"options"`
}

func (p pollPayload) input() social.PollInput {
	return social.PollInput{
		Question:    p.Question,
		EndsAt:      p.EndsAt,
		IsAnonymous: p.IsAnonymous,
		Options:     p.Options,
	}
}

type createPostRequestPayload struct {
	UserID    int64        `json:"userId"`
	Content   string       `json:"content"`
	MediaURL  *string      `json:"mediaUrl"`
	MediaType *string      `json:"mediaType"`
	Poll      *pollPayload `json:"poll"`
}

// postResponsePayload is a post with the poll created alongside it.
type postResponsePayload struct {
	store.Post
	Poll    *store.Poll        `json:"poll,omitempty"`
	Options []store.PollOption `json:"options,omitempty"`
}

type createPollRequestPayload struct {
	PostID int64 `json:"postId"`
	pollPayload
}

type pollResponsePayload struct {
	store.Poll
	Options []store.PollOption `json:"options"`
}

type addPollOptionRequestPayload struct {
	PollID int64  `json:"pollId"`
	Text   string `json:"text"`
}

type voteRequestPayload struct {
	PollID   int64 `json:"pollId"`
	OptionID int64 `json:"optionId"`
	UserID   int64 `json:"userId"`
}

func (h *httpHandler) handleListPosts(c *gin.Context) {
	posts, err := h.service.ListPosts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *httpHandler) handleListUserPosts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	posts, err := h.service.ListPostsByUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *httpHandler) handleFeed(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	posts, err := h.service.GetFeed(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *httpHandler) handleGetPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.service.GetPost(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *httpHandler) handleCreatePost(c *gin.Context) {
	var request createPostRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	input := social.CreatePostInput{
		UserID:    request.UserID,
		Content:   request.Content,
		MediaURL:  request.MediaURL,
		MediaType: request.MediaType,
	}
	if request.Poll != nil {
		poll := request.Poll.input()
		input.Poll = &poll
	}
	details, err := h.service.CreatePost(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postResponsePayload{Post: details.Post, Poll: details.Poll, Options: details.Options})
}

func (h *httpHandler) handleDeletePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePost(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleListPolls(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	polls, err := h.service.ListPollsByPost(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

func (h *httpHandler) handleCreatePoll(c *gin.Context) {
	var request createPollRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	details, err := h.service.CreatePoll(c.Request.Context(), request.PostID, request.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pollResponsePayload{Poll: details.Poll, Options: details.Options})
}

func (h *httpHandler) handleAddPollOption(c *gin.Context) {
	var request addPollOptionRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	option, err := h.service.AddPollOption(c.Request.Context(), request.PollID, request.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, option)
}

func (h *httpHandler) handleListPollOptions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	options, err := h.service.ListPollOptions(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *httpHandler) handleListPollVotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	votes, err := h.service.ListPollVotes(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}

func (h *httpHandler) handleVote(c *gin.Context) {
	var request voteRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	vote, err := h.service.Vote(c.Request.Context(), request.PollID, request.OptionID, request.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vote)
}
