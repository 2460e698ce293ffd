// Package config loads process configuration from the environment.
//
// A .env file in the working directory is loaded first when present, then
// variables are bound to the structs below by caarlos0/env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string        `env:"SAMVED_ADDR" envDefault:":8080"`
	LogLevel    string        `env:"SAMVED_LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"SAMVED_LOG_FORMAT" envDefault:"json"`
	ShutdownTTL time.Duration `env:"SAMVED_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	SMTP      SMTPConfig
	Notify    NotifyConfig
	JWT       JWTConfig
	Promotion PromotionConfig
	RateLimit RateLimitConfig
}

// HTTPConfig bounds how long a client may hold a connection.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"65536"`
}

// DatabaseConfig selects Postgres persistence. An empty URL keeps every
// store in memory.
type DatabaseConfig struct {
	URL          string `env:"DATABASE_URL"`
	Migrate      bool   `env:"DATABASE_MIGRATE" envDefault:"true"`
	MaxOpenConns int    `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int    `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
}

// RedisConfig enables the distributed promotion lock and rate limiter.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig enables relaying the audit outbox. Requires a database.
type KafkaConfig struct {
	Brokers       []string      `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic    string        `env:"KAFKA_AUDIT_TOPIC" envDefault:"samved.audit"`
	ConsumerGroup string        `env:"KAFKA_CONSUMER_GROUP" envDefault:"samved-audit-materializer"`
	PollInterval  time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	BatchSize     int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// SMTPConfig enables real mail delivery. An empty host logs mail instead.
type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT" envDefault:"587"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
	From string `env:"SMTP_FROM" envDefault:"no-reply@samved.local"`
}

// NotifyConfig sizes the in-process notification outbox.
type NotifyConfig struct {
	BufferSize    int           `env:"NOTIFY_BUFFER_SIZE" envDefault:"1024"`
	BatchSize     int           `env:"NOTIFY_BATCH_SIZE" envDefault:"32"`
	FlushInterval time.Duration `env:"NOTIFY_FLUSH_INTERVAL" envDefault:"500ms"`
}

// JWTConfig configures verification of admin bearer tokens.
type JWTConfig struct {
	SigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string `env:"JWT_ISSUER" envDefault:"samved"`
	Audience   string `env:"JWT_AUDIENCE" envDefault:"samved-admin"`
}

// PromotionConfig tunes the approve/reject critical section.
type PromotionConfig struct {
	LockTTL time.Duration `env:"PROMOTION_LOCK_TTL" envDefault:"30s"`
}

// RateLimitConfig throttles public registration submissions per client IP.
type RateLimitConfig struct {
	Disabled     bool          `env:"RATE_LIMIT_DISABLED" envDefault:"false"`
	SubmitLimit  int           `env:"RATE_LIMIT_SUBMIT" envDefault:"10"`
	SubmitWindow time.Duration `env:"RATE_LIMIT_SUBMIT_WINDOW" envDefault:"1m"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Database.URL == "" {
		return Server{}, errors.New("KAFKA_BROKERS requires DATABASE_URL for the audit outbox")
	}
	return cfg, nil
}
