package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
)

// Config aggregates every setting of the service.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	AI         AIConfig
	Knowledge  KnowledgeConfig
	Webhook    WebhookConfig
	SessionLog SessionLogConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	kb, err := loadKnowledgeConfig()
	if err != nil {
		return nil, err
	}

	webhook, err := loadWebhookConfig()
	if err != nil {
		return nil, err
	}

	sessionLog, err := loadSessionLogConfig(webhook)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Log:        loadLogConfig(),
		AI:         ai,
		Knowledge:  kb,
		Webhook:    webhook,
		SessionLog: sessionLog,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as given.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Env   string
	Level string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Env:   getEnvOrDefault("APP_ENV", "development"),
		Level: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// Provider names a completion backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderArk    Provider = "ark"
)

// AIConfig describes the completion model and its sampling parameters.
type AIConfig struct {
	Provider    Provider
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Enabled reports whether enough credentials are present to build a model.
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	switch c.Provider {
	case ProviderArk:
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	default:
		return c.APIKey != ""
	}
}

// NewChatModel builds the completion client for the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s credentials or model missing", c.Provider)
	}

	temperature := float32(c.Temperature)
	maxTokens := c.MaxTokens

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	default:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := Provider(strings.ToLower(getEnvOrDefault("LLM_PROVIDER", string(ProviderOpenAI))))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	temperature := 0.5
	if override, err := parseOptionalFloatEnv("LLM_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	maxTokens := 200
	if override, err := parseOptionalIntEnv("LLM_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("invalid LLM_MAX_TOKENS value %d", *override)
		}
		maxTokens = *override
	}

	timeout, err := parseDurationEnv("LLM_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:    provider,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}

	switch provider {
	case ProviderArk:
		cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("ARK_MODEL"))
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
	default:
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", "gpt-4o")
		cfg.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	}

	return cfg, nil
}

// KnowledgeConfig points at the file backing the system prompt.
type KnowledgeConfig struct {
	Mode knowledge.Mode
	Path string
}

func loadKnowledgeConfig() (KnowledgeConfig, error) {
	mode, err := knowledge.ParseMode(os.Getenv("KNOWLEDGE_MODE"))
	if err != nil {
		return KnowledgeConfig{}, fmt.Errorf("invalid KNOWLEDGE_MODE: %w", err)
	}

	path := getEnvOrDefault("KNOWLEDGE_BASE_PATH", "data/knowledge_base.json")
	if mode == knowledge.ModeMaster {
		path = getEnvOrDefault("MASTER_CONFIG_PATH", "data/master_config.yaml")
	}

	return KnowledgeConfig{Mode: mode, Path: path}, nil
}

// WebhookConfig describes the booking sink.
type WebhookConfig struct {
	BookingURL string
	Timeout    time.Duration
}

func loadWebhookConfig() (WebhookConfig, error) {
	timeout, err := parseDurationEnv("WEBHOOK_TIMEOUT", 10*time.Second)
	if err != nil {
		return WebhookConfig{}, err
	}

	return WebhookConfig{
		BookingURL: strings.TrimSpace(os.Getenv("N8N_WEBHOOK_URL")),
		Timeout:    timeout,
	}, nil
}

// SessionLogConfig describes the transcript sink and its duplicate guard.
type SessionLogConfig struct {
	WebhookURL string
	RedisURL   string
	DedupTTL   time.Duration
}

func loadSessionLogConfig(webhook WebhookConfig) (SessionLogConfig, error) {
	ttl, err := parseDurationEnv("SESSION_LOG_DEDUP_TTL", 24*time.Hour)
	if err != nil {
		return SessionLogConfig{}, err
	}

	return SessionLogConfig{
		WebhookURL: getEnvOrDefault("SESSION_LOG_WEBHOOK_URL", webhook.BookingURL),
		RedisURL:   strings.TrimSpace(os.Getenv("REDIS_URL")),
		DedupTTL:   ttl,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
