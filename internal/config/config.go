// Package config loads configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// MongoDB connection
	MongoURI      string
	MongoDatabase string

	// LLM
	LLMProvider     string
	LLMModel        string // classification / extraction model
	SearchModel     string // grounded web-search model
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	BedrockRegion   string

	// Messaging platform
	VerifyToken string
	PageToken   string
	PageID      string
	Port        string

	// Per-sender daily quotas
	ClassifyQuota  int
	WebSearchQuota int

	// TTLs and caps
	ContextTTL     time.Duration
	DedupTTL       time.Duration
	ShownKeysCap   int
	ShownEventsCap int

	// Call timeouts
	ClassifyTimeout time.Duration
	ExtractTimeout  time.Duration
	SearchTimeout   time.Duration
	SendTimeout     time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		MongoURI:      getEnv("CONCIERGE_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("CONCIERGE_MONGO_DB", "concierge"),

		LLMProvider:     getEnv("CONCIERGE_LLM_PROVIDER", ProviderOpenAI),
		LLMModel:        getEnv("CONCIERGE_LLM_MODEL", "gpt-4o-mini"),
		SearchModel:     getEnv("CONCIERGE_SEARCH_MODEL", "gpt-4o-search-preview"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		BedrockRegion:   getEnv("AWS_REGION", "us-east-1"),

		VerifyToken: os.Getenv("CONCIERGE_VERIFY_TOKEN"),
		PageToken:   os.Getenv("CONCIERGE_PAGE_TOKEN"),
		PageID:      os.Getenv("CONCIERGE_PAGE_ID"),
		Port:        getEnv("CONCIERGE_PORT", "8080"),

		ClassifyQuota:  getEnvInt("CONCIERGE_CLASSIFY_QUOTA", 20),
		WebSearchQuota: getEnvInt("CONCIERGE_WEB_SEARCH_QUOTA", 4),

		ContextTTL:     getEnvDuration("CONCIERGE_CONTEXT_TTL", 30*time.Minute),
		DedupTTL:       getEnvDuration("CONCIERGE_DEDUP_TTL", 120*time.Second),
		ShownKeysCap:   getEnvInt("CONCIERGE_SHOWN_KEYS_CAP", 100),
		ShownEventsCap: getEnvInt("CONCIERGE_SHOWN_EVENTS_CAP", 50),

		ClassifyTimeout: getEnvDuration("CONCIERGE_CLASSIFY_TIMEOUT", 10*time.Second),
		ExtractTimeout:  getEnvDuration("CONCIERGE_EXTRACT_TIMEOUT", 15*time.Second),
		SearchTimeout:   getEnvDuration("CONCIERGE_SEARCH_TIMEOUT", 60*time.Second),
		SendTimeout:     getEnvDuration("CONCIERGE_SEND_TIMEOUT", 15*time.Second),

		LogFile:  getEnv("CONCIERGE_LOG_FILE", "/tmp/concierge.log"),
		LogLevel: parseLogLevel(getEnv("CONCIERGE_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
