package sessionlog

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/model/chat"
	sessionlogService "github.com/zhouzirui/zesty/backend/internal/service/sessionlog"
	"github.com/zhouzirui/zesty/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

type logRequest struct {
	SessionID string          `json:"sessionId"`
	History   json.RawMessage `json:"history"`
	LeadName  string          `json:"leadName"`
	LeadEmail string          `json:"leadEmail"`
}

// Handler accepts transcripts the widget flushes when a visitor leaves.
type Handler struct {
	service *sessionlogService.Service
	logger  *zap.Logger
}

func New(service *sessionlogService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger.Named("sessionlog")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/session-log", h.handleLog)
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondMethodNotAllowed(w, r, http.MethodPost)
		return
	}

	if h.service == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "session logging unavailable")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var req logRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	history, err := chat.DecodeHistory(req.History)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.service.Record(r.Context(), sessionlogService.Entry{
		SessionID: strings.TrimSpace(req.SessionID),
		History:   history,
		LeadName:  strings.TrimSpace(req.LeadName),
		LeadEmail: strings.TrimSpace(req.LeadEmail),
	})
	if err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to forward session log", zap.String("session_id", req.SessionID), zap.Error(err))
		utils.RespondError(w, http.StatusBadGateway, "failed to record session")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": string(outcome)})
}
