package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	messageInternal     = "Internal server error"
	messageInvalidBody  = "Invalid request body"
	messageInvalidID    = "Invalid id"
	messageUnauthorized = "Unauthorized"
)

func statusForKind(err error) int {
	switch {
	case errors.Is(err, social.ErrValidation), errors.Is(err, social.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, social.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, social.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a service error to its status code and a {message} body.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := messageInternal
	var serviceErr *social.ServiceError
	if errors.As(err, &serviceErr) {
		status = statusForKind(serviceErr.Kind())
		message = serviceErr.Message()
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// bindStrictJSON decodes exactly one JSON object and rejects unknown fields.
func bindStrictJSON(c *gin.Context, target any) bool {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		respondMessage(c, http.StatusBadRequest, describeDecodeError(err))
		return false
	}
	if decoder.More() {
		respondMessage(c, http.StatusBadRequest, messageInvalidBody)
		return false
	}
	return true
}

func describeDecodeError(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "Request body is required"
	case errors.As(err, &syntaxErr):
		return messageInvalidBody
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Invalid value for field %s", typeErr.Field)
	default:
		// encoding/json reports unknown fields as `json: unknown field "x"`.
		return messageInvalidBody + ": " + err.Error()
	}
}

// pathID reads a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value <= 0 {
		respondMessage(c, http.StatusBadRequest, messageInvalidID)
		return 0, false
	}
	return value, true
}
