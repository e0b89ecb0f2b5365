package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/config"
	"github.com/zhouzirui/zesty/backend/internal/handler"
	"github.com/zhouzirui/zesty/backend/internal/logger"
	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
	"github.com/zhouzirui/zesty/backend/internal/service/ai"
	"github.com/zhouzirui/zesty/backend/internal/service/booking"
	"github.com/zhouzirui/zesty/backend/internal/service/sessionlog"
	"github.com/zhouzirui/zesty/backend/internal/service/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	source, err := knowledge.NewFileSource(cfg.Knowledge.Mode, cfg.Knowledge.Path)
	if err != nil {
		zl.Fatal("invalid knowledge configuration", zap.Error(err))
	}
	// Surface a broken knowledge file at boot; requests still re-read it.
	if _, err := source.Load(ctx); err != nil {
		zl.Warn("knowledge file not usable yet, chat will fail until fixed",
			zap.String("path", source.Path()),
			zap.Error(err),
		)
	}

	// Initialize conversation relay
	var relay *ai.Service
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			zl.Warn("failed to build chat model, continuing without chat", zap.Error(err))
		} else if relay, err = ai.NewService(ctx, chatModel, source, cfg.AI, zl); err != nil {
			zl.Warn("failed to initialize AI service, continuing without chat", zap.Error(err))
			relay = nil
		} else {
			zl.Info("AI service initialized",
				zap.String("provider", string(cfg.AI.Provider)),
				zap.String("model", cfg.AI.Model),
			)
		}
	} else {
		zl.Warn("LLM credentials not configured, chat turns will fail until they are set",
			zap.String("provider", string(cfg.AI.Provider)),
		)
	}

	bookingHook := webhook.New(cfg.Webhook.BookingURL, cfg.Webhook.Timeout, zl)
	if !bookingHook.Configured() {
		zl.Warn("N8N_WEBHOOK_URL not set, bookings will fall back to manual follow-up")
	}
	extractor := booking.NewExtractor(bookingHook, zl)

	sessionLogs, closeDedup := newSessionLogService(ctx, cfg, zl)
	defer closeDedup()

	router := handler.NewRouter(handler.RouterConfig{
		Relay:          relay,
		Extractor:      extractor,
		SessionLogs:    sessionLogs,
		Logger:         zl,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	startServer(ctx, cfg.Server, router, zl)
}

func newSessionLogService(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*sessionlog.Service, func()) {
	noop := func() {}

	hook := webhook.New(cfg.SessionLog.WebhookURL, cfg.Webhook.Timeout, zl)
	if !hook.Configured() {
		zl.Info("session log webhook not configured, session logging disabled")
		return nil, noop
	}

	if cfg.SessionLog.RedisURL == "" {
		return sessionlog.NewService(hook, nil, zl), noop
	}

	dedup, err := sessionlog.NewRedisDeduper(ctx, cfg.SessionLog.RedisURL, cfg.SessionLog.DedupTTL)
	if err != nil {
		zl.Warn("redis unavailable, session logs will not be deduplicated", zap.Error(err))
		return sessionlog.NewService(hook, nil, zl), noop
	}
	zl.Info("session log deduplication enabled", zap.Duration("ttl", cfg.SessionLog.DedupTTL))

	return sessionlog.NewService(hook, dedup, zl), func() {
		if err := dedup.Close(); err != nil {
			zl.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, zl *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	zl.Info("Zesty backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
