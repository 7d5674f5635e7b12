package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	JWTSecret  string
	ServiceKey string

	DefaultTimezone     string
	ReminderSchedule    string
	BriefSchedule       string
	BriefGrace          time.Duration
	DispatchTimeout     time.Duration
	DispatchConcurrency int

	VAPIDPublicKey      string
	VAPIDPrivateKey     string
	VAPIDSubject        string
	FirebaseCredentials string

	TelegramAPIURL     string
	TelegramRatePerSec int

	EvolutionAPIURL   string
	EvolutionAPIKey   string
	EvolutionInstance string

	GoogleProjectID   string
	GooglePubSubTopic string
	GoogleCredentials string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),

		JWTSecret:  getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		ServiceKey: getEnv("SERVICE_KEY", ""),

		DefaultTimezone:     getEnv("DEFAULT_TIMEZONE", "America/Sao_Paulo"),
		ReminderSchedule:    getEnv("REMINDER_SCHEDULE", "@every 1m"),
		BriefSchedule:       getEnv("BRIEF_SCHEDULE", "@every 5m"),
		BriefGrace:          getDuration("BRIEF_GRACE", 30*time.Minute),
		DispatchTimeout:     getDuration("DISPATCH_TIMEOUT", 10*time.Second),
		DispatchConcurrency: getInt("DISPATCH_CONCURRENCY", 8),

		VAPIDPublicKey:      getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:     getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:        getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		TelegramAPIURL:     getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramRatePerSec: getInt("TELEGRAM_RATE_PER_SEC", 20),

		EvolutionAPIURL:   getEnv("EVOLUTION_API_URL", ""),
		EvolutionAPIKey:   getEnv("EVOLUTION_API_KEY", ""),
		EvolutionInstance: getEnv("EVOLUTION_INSTANCE", ""),

		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic: getEnv("GOOGLE_PUBSUB_TOPIC", "notification-runs"),
		GoogleCredentials: getEnv("GOOGLE_CREDENTIALS", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
