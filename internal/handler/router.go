package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/handler/chat"
	"github.com/zhouzirui/zesty/backend/internal/handler/sessionlog"
	middlewarePkg "github.com/zhouzirui/zesty/backend/internal/middleware"
	aiService "github.com/zhouzirui/zesty/backend/internal/service/ai"
	bookingService "github.com/zhouzirui/zesty/backend/internal/service/booking"
	sessionlogService "github.com/zhouzirui/zesty/backend/internal/service/sessionlog"
	"github.com/zhouzirui/zesty/backend/pkg/utils"
)

// RouterConfig carries what the HTTP layer needs from the service layer.
// A nil Relay fails chat turns with 500; a nil SessionLogs answers 503.
type RouterConfig struct {
	Relay          *aiService.Service
	Extractor      *bookingService.Extractor
	SessionLogs    *sessionlogService.Service
	Logger         *zap.Logger
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler := chat.New(cfg.Relay, cfg.Extractor, logger, cfg.AllowedOrigins)
	sessionLogHandler := sessionlog.New(cfg.SessionLogs, logger)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		sessionLogHandler.RegisterRoutes(api)
	})

	return r
}
