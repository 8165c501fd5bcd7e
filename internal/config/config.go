package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config centralizes environment-backed settings for the engine.
type Config struct {
	HTTPPort    string
	MetricsPort string

	// PostgresDSN selects the relational store; empty runs on the
	// in-memory repository with seed data (local development).
	PostgresDSN string

	// KafkaBrokers selects the Kafka notification dispatcher; empty
	// falls back to the log dispatcher.
	KafkaBrokers       string
	NotificationsTopic string

	FeeCents       int64
	SweepBatchSize int
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		MetricsPort:        getEnv("METRICS_PORT", "9095"),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		KafkaBrokers:       getEnv("KAFKA_BROKERS", ""),
		NotificationsTopic: getEnv("KAFKA_TOPIC_NOTIFICATIONS", "marketplace.notifications"),
		FeeCents:           getEnvInt64("PARTICIPATION_FEE_CENTS", 500),
		SweepBatchSize:     getEnvInt("SWEEP_BATCH_SIZE", 50),
	}
}

// ParticipationFeeCents returns the fee charged to join an auction
func (c Config) ParticipationFeeCents() int64 {
	return c.FeeCents
}

// getEnv returns the environment value or the default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
