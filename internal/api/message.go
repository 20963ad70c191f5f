package api

import (
	"net/http"

	"ai-companion-demo/backend/internal/models"
	"ai-companion-demo/backend/internal/service"
	apperrors "ai-companion-demo/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// MessageHandler maps the message endpoints onto the chat service.
type MessageHandler struct {
	chat *service.ChatService
}

func NewMessageHandler(chat *service.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

// RegisterRoutes registers the message routes on the given group.
func (h *MessageHandler) RegisterRoutes(group *gin.RouterGroup) {
	messages := group.Group("/messages")
	{
		messages.GET("/:characterId", h.List)
		messages.POST("/:characterId", h.Send)
		messages.DELETE("/:characterId", h.Clear)
	}
}

// List handles GET /api/messages/:characterId
func (h *MessageHandler) List(c *gin.Context) {
	messages, err := h.chat.ListMessages(c.Param("characterId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Send handles POST /api/messages/:characterId. It runs one conversation turn
// and returns the assistant reply.
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format"))
		return
	}

	reply, err := h.chat.SubmitTurn(c.Request.Context(), c.Param("characterId"), req.Text)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Clear handles DELETE /api/messages/:characterId
func (h *MessageHandler) Clear(c *gin.Context) {
	if err := h.chat.ClearMessages(c.Param("characterId")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
