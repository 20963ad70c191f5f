// Package ws exposes the conversation turn flow over a websocket: every
// inbound text frame runs one turn and the reply frame carries the assistant
// message. Each connection drives only its own turns; there is no fan-out.
package ws

import (
	"net/http"

	"ai-companion-demo/backend/internal/service"
	apperrors "ai-companion-demo/backend/pkg/errors"
	"ai-companion-demo/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the CORS middleware on the HTTP side;
	// the handshake accepts any origin that reached it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades connections and pumps chat turns.
type Handler struct {
	chat *service.ChatService
	log  *logger.Logger
}

func NewHandler(chat *service.ChatService, log *logger.Logger) *Handler {
	return &Handler{chat: chat, log: log}
}

type inboundFrame struct {
	Text string `json:"text"`
}

type outboundFrame struct {
	Type    string      `json:"type"`
	Message interface{} `json:"message,omitempty"`
	Error   *frameError `json:"error,omitempty"`
}

type frameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Serve handles GET /ws/chat?characterId=...
func (h *Handler) Serve(c *gin.Context) {
	characterID := c.Query("characterId")
	if characterID == "" {
		c.Error(apperrors.NewBadRequestError("MISSING_CHARACTER_ID", "characterId is required"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.LogError(err, "websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "error", err.Error())
			}
			return
		}

		reply, err := h.chat.SubmitTurn(ctx, characterID, frame.Text)
		if err != nil {
			appErr := apperrors.FromError(err)
			writeErr := conn.WriteJSON(outboundFrame{
				Type:  "error",
				Error: &frameError{Code: appErr.Code, Message: appErr.Message},
			})
			if writeErr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(outboundFrame{Type: "message", Message: reply}); err != nil {
			return
		}
	}
}
