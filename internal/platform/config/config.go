package config

import (
	"os"
	"strings"
	"time"

	platformstrings "tillbook/pkg/platform/strings"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr        string
	MetricsAddr string
	DatabaseURL string
	// KafkaBrokers is empty when event publishing is disabled.
	KafkaBrokers []string
	EventTopic   string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("TILLBOOK_ADDR", ":8080"),
		MetricsAddr:     envOr("TILLBOOK_METRICS_ADDR", ":9090"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		EventTopic:      envOr("TILLBOOK_EVENT_TOPIC", "tillbook.cash-events"),
		ShutdownTimeout: 10 * time.Second,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
