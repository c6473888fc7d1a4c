package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Optional backends (Postgres,
// Redis, Kafka) are off when their URL is empty; the service then falls back
// to in-memory implementations so local development needs no infrastructure.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  string
	AuditTopic    string
	JWTSigningKey string
	TokenTTL      time.Duration
	CacheTTL      time.Duration

	// Seed issuer credentials for deployments without an onboarding flow.
	SeedIssuerID     string
	SeedIssuerName   string
	SeedIssuerSecret string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("VERISEAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("VERISEAL_AUDIT_TOPIC")
	if topic == "" {
		topic = "veriseal.audit"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		AuditTopic:    topic,
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      durationFromEnv("TOKEN_TTL_MINUTES", 15) * time.Minute,
		CacheTTL:      durationFromEnv("RECORD_CACHE_TTL_SECONDS", 60) * time.Second,

		SeedIssuerID:     os.Getenv("SEED_ISSUER_ID"),
		SeedIssuerName:   os.Getenv("SEED_ISSUER_NAME"),
		SeedIssuerSecret: os.Getenv("SEED_ISSUER_SECRET"),
	}
}

func durationFromEnv(key string, fallback int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return time.Duration(fallback)
	}
	return time.Duration(n)
}
