package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// LLM providers
	GeminiAPIKey   string
	GeminiModelID  string
	BedrockModelID string
	AWSRegion      string
	LLMTimeout     time.Duration

	// Google Calendar
	CalendarID              string
	CalendarCredentialsPath string
	CalendarMockMode        bool

	// Scheduling
	SlotDuration      time.Duration
	WorkingHoursStart int
	WorkingHoursEnd   int
	MaxOfferedSlots   int

	// Session storage
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 15*time.Second),

		CalendarID:              getEnv("GOOGLE_CALENDAR_ID", "primary"),
		CalendarCredentialsPath: getEnv("GOOGLE_CALENDAR_CREDENTIALS_PATH", ""),
		CalendarMockMode:        getEnvAsBool("CALENDAR_MOCK_MODE", false),

		SlotDuration:      getEnvAsDuration("SLOT_DURATION", 60*time.Minute),
		WorkingHoursStart: getEnvAsInt("WORKING_HOURS_START", 9),
		WorkingHoursEnd:   getEnvAsInt("WORKING_HOURS_END", 17),
		MaxOfferedSlots:   getEnvAsInt("MAX_OFFERED_SLOTS", 3),

		SessionStore:  strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
