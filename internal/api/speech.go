package api

import (
	"encoding/base64"
	"net/http"

	"ai-companion-demo/backend/internal/service"
	apperrors "ai-companion-demo/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// SpeechHandler maps the text-to-speech endpoint onto the speech service.
type SpeechHandler struct {
	speech *service.SpeechService
}

func NewSpeechHandler(speech *service.SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

// RegisterRoutes registers the speech route on the given group.
func (h *SpeechHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/speech", h.Synthesize)
}

type speechRequest struct {
	Text      string `json:"text"`
	VoiceName string `json:"voiceName"`
}

// Synthesize handles POST /api/speech
func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format"))
		return
	}

	audio, err := h.speech.Synthesize(c.Request.Context(), req.Text, req.VoiceName)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
}
