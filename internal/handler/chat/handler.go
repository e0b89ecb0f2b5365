package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/middleware"
	"github.com/zhouzirui/zesty/backend/internal/model/chat"
	"github.com/zhouzirui/zesty/backend/internal/service/ai"
	bookingService "github.com/zhouzirui/zesty/backend/internal/service/booking"
	"github.com/zhouzirui/zesty/backend/pkg/utils"
)

const (
	maxBodyBytes = 1 << 20

	// leadCapturePrompt in a reply makes the widget render its inline lead form.
	leadCapturePrompt = "What is your name and email address?"

	internalErrorMessage = "An internal error occurred."
)

// Response is the body returned to the widget for one turn.
type Response struct {
	Reply       string `json:"reply"`
	SessionID   string `json:"sessionId,omitempty"`
	LeadCapture bool   `json:"leadCapture,omitempty"`
}

// Handler serves chat turns over HTTP and WebSocket.
type Handler struct {
	relay     *ai.Service
	extractor *bookingService.Extractor
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// New creates the chat handler. A nil relay fails every turn with the generic
// internal error. allowedOrigins guards WebSocket upgrades like CORS guards the
// HTTP endpoints.
func New(relay *ai.Service, extractor *bookingService.Extractor, logger *zap.Logger, allowedOrigins []string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		relay:     relay,
		extractor: extractor,
		logger:    logger.Named("chat"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes mounts the chat endpoints. /index.js is the path older widget builds post to.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/chat", h.handleChat)
	r.HandleFunc("/index.js", h.handleChat)
	r.Get("/ws", h.handleWebSocket)
}

// handleChat relays one turn and applies booking extraction.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondMethodNotAllowed(w, r, http.MethodPost)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := chat.ParseSessionContext(raw)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	session = session.EnsureSessionID()

	if h.relay == nil {
		h.logger.Error("chat turn rejected: no completion model configured", zap.String("session_id", session.SessionID))
		utils.RespondError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	resp, err := h.converse(r.Context(), session)
	if err != nil {
		h.logger.Error("failed to process chat turn", zap.String("session_id", session.SessionID), zap.Error(err))
		if errors.Is(err, chat.ErrInvalidInput) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// converse runs relay then extractor. The booking webhook must not be cut off
// when the widget disconnects mid-request, so it gets a detached context.
func (h *Handler) converse(ctx context.Context, session chat.SessionContext) (Response, error) {
	turn, err := h.relay.Reply(ctx, session)
	if err != nil {
		return Response{}, err
	}

	reply := turn.Content
	if h.extractor != nil {
		result := h.extractor.Process(context.WithoutCancel(ctx), turn.Content, session, turn.Profile.MeetingMinutes())
		reply = result.Reply
	}

	return Response{
		Reply:       reply,
		SessionID:   session.SessionID,
		LeadCapture: strings.Contains(reply, leadCapturePrompt),
	}, nil
}
