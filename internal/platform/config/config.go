package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "leadbook/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Session   Session
	RateLimit RateLimit
	Log       Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database selects the buyer store backend.
// Driver is one of "postgres", "sqlite" or "memory".
type Database struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig enables the shared rate-limit store when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka enables history event publishing when Brokers is non-empty.
type Kafka struct {
	Brokers           []string
	HistoryTopic      string
	Partitions        int32
	ReplicationFactor int16
}

// Session configures sign-in tokens.
type Session struct {
	SigningKey   string
	Issuer       string
	TTL          time.Duration
	SecureCookie bool
}

// RateLimit configures the per-actor mutation limits.
type RateLimit struct {
	Disabled    bool
	CreateLimit int
	UpdateLimit int
	Window      time.Duration
}

// Log configures the slog handler.
type Log struct {
	Level  string
	Format string
}

// Load reads .env files (missing files are ignored) and then the environment.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	signingKey := os.Getenv("SESSION_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:            envOr("LEADBOOK_ADDR", ":8080"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			Driver:          envOr("DATABASE_DRIVER", "sqlite"),
			URL:             envOr("DATABASE_URL", "file:leadbook.db?_foreign_keys=on"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     envBool("DATABASE_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:           envList("KAFKA_BROKERS"),
			HistoryTopic:      envOr("KAFKA_HISTORY_TOPIC", "buyer-history"),
			Partitions:        int32(envInt("KAFKA_HISTORY_PARTITIONS", 3)),
			ReplicationFactor: int16(envInt("KAFKA_HISTORY_REPLICATION", 1)),
		},
		Session: Session{
			SigningKey:   signingKey,
			Issuer:       envOr("SESSION_ISSUER", "leadbook"),
			TTL:          envDuration("SESSION_TTL", 24*time.Hour),
			SecureCookie: envBool("SESSION_SECURE_COOKIE", false),
		},
		RateLimit: RateLimit{
			Disabled:    envBool("RATE_LIMIT_DISABLED", false),
			CreateLimit: envInt("RATE_LIMIT_CREATE", 10),
			UpdateLimit: envInt("RATE_LIMIT_UPDATE", 6),
			Window:      envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Log: Log{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func envList(key string) []string {
	return platformstrings.SplitList(os.Getenv(key), ",")
}
