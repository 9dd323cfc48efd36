package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	DatabaseURL     string
	RedisAddr       string
	RedisPwd        string
	WebOrigin       string
	Port            string
	DefaultLoanDays int
	WriteRateLimit  int // writes per minute per client, 0 disables
	IdempotencyTTL  time.Duration
	LogLevel        slog.Level
}

// LoadEnv loads .env into the process environment. A missing file is fine.
func LoadEnv() {
	_ = godotenv.Load()
}

func Load() Config {
	LoadEnv()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests need not touch
// the process environment.
func FromEnv(getenv func(string) string) Config {
	get := func(k, def string) string {
		v := strings.TrimSpace(getenv(k))
		if v == "" {
			return def
		}
		return v
	}
	getInt := func(k string, def int) int {
		n, err := strconv.Atoi(get(k, ""))
		if err != nil || n < 0 {
			return def
		}
		return n
	}

	dsn := get("DATABASE_URL", "")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			get("DB_HOST", "127.0.0.1"),
			get("DB_USER", "postgres"),
			getenv("DB_PASSWORD"),
			get("DB_NAME", "school_inventory"),
			get("DB_PORT", "5432"),
		)
	}

	loanDays := getInt("DEFAULT_LOAN_DAYS", 7)
	if loanDays == 0 {
		loanDays = 7
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}

	return Config{
		DatabaseURL:     dsn,
		RedisAddr:       get("REDIS_ADDR", ""),
		RedisPwd:        getenv("REDIS_PASSWORD"),
		WebOrigin:       get("WEB_ORIGIN", "http://localhost:5173"),
		Port:            get("PORT", "3001"),
		DefaultLoanDays: loanDays,
		WriteRateLimit:  getInt("WRITE_RATE_LIMIT", 120),
		IdempotencyTTL:  time.Duration(getInt("IDEMPOTENCY_TTL_SECONDS", 86400)) * time.Second,
		LogLevel:        level,
	}
}
