package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required
	AnthropicAPIKey       string
	GoogleCredentialsFile string
	GoogleTokenFile       string

	// Optional with defaults
	DBPath            string
	HTTPPort          int
	BusinessTimezone  string
	ClaudeModel       string
	ClaudeTemperature float64

	// Optional email confirmations (disabled when unset)
	ResendAPIKey string
	EmailFrom    string
	NotifyEmail  string
}

func LoadFromEnv() *Config {
	return &Config{
		// Required
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),

		// Optional with defaults
		DBPath:            getEnvOrDefault("BOOKING_DB_PATH", "./bookingagent.db"),
		HTTPPort:          getEnvAsIntOrDefault("BOOKING_HTTP_PORT", 8000),
		BusinessTimezone:  getEnvOrDefault("BOOKING_TIMEZONE", "Asia/Kolkata"),
		ClaudeModel:       getEnvOrDefault("BOOKING_CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		ClaudeTemperature: getEnvAsFloatOrDefault("BOOKING_CLAUDE_TEMPERATURE", 0.7),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnvOrDefault("BOOKING_EMAIL_FROM", "bookings@localhost"),
		NotifyEmail:  os.Getenv("BOOKING_NOTIFY_EMAIL"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
