package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "timeclock/pkg/platform/strings"
)

// Server captures process-level configuration. Policy knobs that govern punch
// acceptance live in internal/policy; this is wiring only.
type Server struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Provider ProviderConfig
}

// ProviderConfig points at the external face verification service. An empty
// URL leaves verification running against the always-approve development
// provider.
type ProviderConfig struct {
	URL    string
	APIKey string
}

// PostgresConfig holds the database connection settings.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds connection pool settings for the Redis session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the notification pipeline settings. An empty broker list
// disables the Kafka sink; events then stay on the in-process notifier only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("TIMECLOCK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_NOTIFY_TOPIC")
	if topic == "" {
		topic = "timeclock.notifications"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: pstrings.DedupeAndTrim(splitCSV(os.Getenv("KAFKA_BROKERS"))),
			Topic:   topic,
		},
		Provider: ProviderConfig{
			URL:    os.Getenv("VERIFY_PROVIDER_URL"),
			APIKey: os.Getenv("VERIFY_PROVIDER_API_KEY"),
		},
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
