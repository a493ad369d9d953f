package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string

	// Redis backs the shared rate-limit counters and the notification
	// queue. Empty means in-process counters and no queue worker.
	RedisURL string

	// AdminInbox selects how customer->admin conversations are routed:
	// "shared" resolves to the designated inbox admin, "per-admin"
	// requires an explicit recipient.
	AdminInbox string

	// Message rate limits. Creation of new conversations is throttled
	// harder than replies into existing ones.
	CreateLimit     int
	ReplyLimit      int
	RateLimitWindow time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		RedisURL:        getEnv("REDIS_URL", ""),
		AdminInbox:      getEnv("ADMIN_INBOX", "shared"),
		CreateLimit:     getEnvAsInt("MESSAGE_CREATE_LIMIT", 15),
		ReplyLimit:      getEnvAsInt("MESSAGE_REPLY_LIMIT", 20),
		RateLimitWindow: time.Duration(getEnvAsInt("MESSAGE_LIMIT_WINDOW_MS", 60000)) * time.Millisecond,
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
