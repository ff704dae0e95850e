package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port string
	Env  string

	// Provider selects the model backend: stub, openai, or gemini.
	Provider string
	Model    string

	// ProfileDir overrides the project-local profile store location.
	ProfileDir string

	MaxDocuments int
	Concurrency  int

	OpenAIKey string
	GeminiKey string
	AWSRegion string
}

// Load reads configuration from the environment, after best-effort loading of
// local .env files.
func Load() Config {
	_ = godotenv.Load(".env.local", ".env")

	return Config{
		Port:         getEnv("PORT", "8080"),
		Env:          normalizeEnv(getEnv("ENV", "development")),
		Provider:     strings.ToLower(getEnv("DOCSIFT_PROVIDER", "stub")),
		Model:        os.Getenv("DOCSIFT_MODEL"),
		ProfileDir:   os.Getenv("DOCSIFT_PROFILE_DIR"),
		MaxDocuments: getEnvInt("DOCSIFT_MAX_DOCS", 16),
		Concurrency:  getEnvInt("DOCSIFT_CONCURRENCY", 4),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		AWSRegion:    os.Getenv("AWS_REGION"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	return def
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "development"
	}
}
