package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
	JWTSecret string

	// DoorTimeout is how long a door session may sit without input before
	// the next access discards it. SessionIdleTimeout is the same rule at
	// the session level. Both are evaluated lazily; nothing sweeps in the
	// background.
	DoorTimeout        time.Duration
	SessionIdleTimeout time.Duration

	// NotifyFailureLimit is how many consecutive delivery failures a push
	// subscriber is allowed before it is dropped. NotifyBuffer is the
	// per-subscriber delivery queue depth.
	NotifyFailureLimit int
	NotifyBuffer       int
}

func Load() *Config {
	return &Config{
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getEnv("MONGO_DB", "baudagain"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		DoorTimeout:        getDuration("DOOR_TIMEOUT", 5*time.Minute),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		NotifyFailureLimit: getInt("NOTIFY_FAILURE_LIMIT", 3),
		NotifyBuffer:       getInt("NOTIFY_BUFFER", 16),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
