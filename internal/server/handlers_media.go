package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/echo/internal/media"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const messageMediaDisabled = "Media uploads are not configured"

type presignRequestPayload struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

func (h *httpHandler) handlePresignUpload(c *gin.Context) {
	if h.media == nil {
		respondMessage(c, http.StatusServiceUnavailable, messageMediaDisabled)
		return
	}
	var request presignRequestPayload
	if !bindStrictJSON(c, &request) {
		return
	}
	upload, err := h.media.PresignUpload(c.Request.Context(), media.UploadRequest{
		FileName:    request.FileName,
		ContentType: request.ContentType,
		Size:        request.Size,
	})
	if err != nil {
		if media.IsValidationError(err) {
			respondMessage(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to presign upload", zap.String("content_type", request.ContentType), zap.Error(err))
		respondMessage(c, http.StatusInternalServerError, messageInternal)
		return
	}
	c.JSON(http.StatusOK, upload)
}
