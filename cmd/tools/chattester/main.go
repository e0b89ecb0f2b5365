package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/zesty/backend/internal/config"
	"github.com/zhouzirui/zesty/backend/internal/logger"
	"github.com/zhouzirui/zesty/backend/internal/model/chat"
	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
	"github.com/zhouzirui/zesty/backend/internal/service/ai"
	"github.com/zhouzirui/zesty/backend/internal/service/booking"
	"github.com/zhouzirui/zesty/backend/internal/service/webhook"
)

// printSink stands in for the booking webhook so bookings can be inspected without n8n.
type printSink struct{}

func (printSink) Send(_ context.Context, payload any) error {
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("--- booking payload ---\n%s\n", out)
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, using system environment: %v", err)
	}

	message := flag.String("message", "", "user message appended to the history")
	historyPath := flag.String("history", "", "JSON file holding a prior history array")
	session := flag.String("session", "", "session id, generated when empty")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")
	useWebhook := flag.Bool("webhook", false, "deliver bookings to N8N_WEBHOOK_URL instead of printing them")
	verbose := flag.Bool("v", false, "log at debug level")

	flag.Parse()

	if *message == "" && *historyPath == "" {
		flag.Usage()
		log.Fatal("provide -message and/or -history")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if !cfg.AI.Enabled() {
		log.Fatalf("%s credentials or model not configured", cfg.AI.Provider)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	zl, err := logger.New("development", level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	sessionCtx, err := loadSession(*historyPath, *session, *message)
	if err != nil {
		log.Fatalf("invalid history: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	source, err := knowledge.NewFileSource(cfg.Knowledge.Mode, cfg.Knowledge.Path)
	if err != nil {
		log.Fatalf("invalid knowledge configuration: %v", err)
	}
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatalf("failed to build chat model: %v", err)
	}
	relay, err := ai.NewService(ctx, chatModel, source, cfg.AI, zl)
	if err != nil {
		log.Fatalf("failed to initialize relay: %v", err)
	}

	var sink booking.LeadSink = printSink{}
	if *useWebhook {
		sink = webhook.New(cfg.Webhook.BookingURL, cfg.Webhook.Timeout, zl)
	}
	extractor := booking.NewExtractor(sink, zl)

	start := time.Now()
	turn, err := relay.Reply(ctx, sessionCtx)
	if err != nil {
		log.Fatalf("relay failed: %v", err)
	}
	result := extractor.Process(ctx, turn.Content, sessionCtx, turn.Profile.MeetingMinutes())

	fmt.Printf("session: %s\n", sessionCtx.SessionID)
	fmt.Printf("elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("state:   %s\n", result.State)
	if result.State != booking.StateNormal {
		fmt.Printf("raw:     %s\n", turn.Content)
	}
	if result.Err != nil {
		fmt.Printf("error:   %v\n", result.Err)
	}
	fmt.Printf("reply:   %s\n", result.Reply)
}

func loadSession(path, sessionID, message string) (chat.SessionContext, error) {
	raw := []byte("[]")
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return chat.SessionContext{}, err
		}
		raw = data
	}

	history, err := chat.DecodeHistory(raw)
	if err != nil {
		return chat.SessionContext{}, err
	}
	if message != "" {
		history = append(history, chat.Message{Role: chat.RoleUser, Content: message})
	}

	return chat.SessionContext{SessionID: sessionID, History: history}.EnsureSessionID(), nil
}
