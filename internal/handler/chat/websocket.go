package chat

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/model/chat"
	"github.com/zhouzirui/zesty/backend/pkg/utils"
)

type outgoingMessage struct {
	Reply       string `json:"reply,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	LeadCapture bool   `json:"leadCapture,omitempty"`
	Error       string `json:"error,omitempty"`
}

// handleWebSocket serves turns over one long-lived connection. Each text frame
// carries the same {sessionId, history} body as POST /api/chat.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.relay == nil {
		h.logger.Error("websocket rejected: no completion model configured")
		utils.RespondError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		if msgType != websocket.TextMessage {
			if !h.write(conn, outgoingMessage{Error: "only text frames are supported"}) {
				return
			}
			continue
		}

		session, err := chat.ParseSessionContext(data)
		if err != nil {
			if !h.write(conn, outgoingMessage{Error: err.Error()}) {
				return
			}
			continue
		}
		session = session.EnsureSessionID()

		out := outgoingMessage{SessionID: session.SessionID}
		resp, err := h.converse(ctx, session)
		if err != nil {
			h.logger.Error("failed to process websocket turn", zap.String("session_id", session.SessionID), zap.Error(err))
			out.Error = internalErrorMessage
		} else {
			out.Reply = resp.Reply
			out.LeadCapture = resp.LeadCapture
		}

		if !h.write(conn, out) {
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) bool {
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.Error(err))
		return false
	}
	return true
}
