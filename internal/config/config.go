package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Webhook  WebhookConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	// DSN selects the driver: postgres:// DSNs use lib/pq, anything else is
	// treated as a SQLite path.
	DSN string
}

type WebhookConfig struct {
	// Secret is the shared signing secret agreed with the provider.
	Secret string
}

type RedisConfig struct {
	// Addr enables the daily-counts cache when non-empty.
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// defaultSecret is the provider's published integration-test secret.
const defaultSecret = "AEeyJhbGciOiJIUzUxMiIsImlzcyI6"

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", "file:petzi_webhook.db?cache=shared&mode=rwc"),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("PETZI_SECRET", defaultSecret),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "petzi.ticket.created"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
