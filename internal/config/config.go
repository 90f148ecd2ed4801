package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application-wide configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	SentryDSN      string
	AIAPIKey       string
	LLMURL         string
	LLMModel       string
	DataAPIBaseURL string
	ConfigDir      string
}

// LoadConfig reads configuration from environment variables or a .env file.
// It is the single source of truth for application configuration.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists. In production these are set directly
	// in the environment.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("FATAL: DATABASE_URL environment variable not set")
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	if sentryDSN == "" {
		return nil, fmt.Errorf("FATAL: SENTRY_DSN environment variable not set")
	}

	aiKey := os.Getenv("AI_API_KEY")
	if aiKey == "" {
		return nil, fmt.Errorf("FATAL: AI_API_KEY environment variable not set")
	}

	llmURL := os.Getenv("LLM_URL")
	if llmURL == "" {
		return nil, fmt.Errorf("FATAL: LLM_URL environment variable not set")
	}

	dataAPIBaseURL := os.Getenv("DATA_API_BASE_URL")
	if dataAPIBaseURL == "" {
		return nil, fmt.Errorf("FATAL: DATA_API_BASE_URL environment variable not set")
	}

	llmModel := os.Getenv("LLM_MODEL")
	if llmModel == "" {
		llmModel = "gpt-4o"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "./configs"
	}

	return &Config{
		AppEnv:         appEnv,
		DatabaseURL:    dbURL,
		RedisAddr:      redisAddr,
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SentryDSN:      sentryDSN,
		AIAPIKey:       aiKey,
		LLMURL:         llmURL,
		LLMModel:       llmModel,
		DataAPIBaseURL: dataAPIBaseURL,
		ConfigDir:      configDir,
	}, nil
}
