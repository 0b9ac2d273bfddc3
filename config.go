package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// config holds the server settings read from the environment (and .env).
type config struct {
	Port          string
	DBURL         string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	RedisURL      string // empty selects the in-memory chat session store
	SessionTTL    time.Duration
	SessionMax    int
}

// loadConfig reads .env if present, then the process environment.
// DB_URL is the only required setting.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[loadConfig] no .env loaded: %v", err)
	}

	cfg := config{
		Port:          getEnv("PORT", "3000"),
		DBURL:         os.Getenv("DB_URL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		RedisURL:      os.Getenv("REDIS_URL"),
		SessionTTL:    30 * time.Minute,
		SessionMax:    1000,
	}
	if cfg.DBURL == "" {
		return cfg, fmt.Errorf("DB_URL not set")
	}
	if v := os.Getenv("CHAT_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid CHAT_SESSION_TTL %q", v)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("CHAT_SESSION_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid CHAT_SESSION_MAX %q", v)
		}
		cfg.SessionMax = n
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
