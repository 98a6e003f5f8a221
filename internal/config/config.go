package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory   = "memory"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
)

type Config struct {
	HTTPPort string

	APIBaseURL    string
	APITimeout    time.Duration
	APIGetRetries int

	SessionSecret    string
	SessionStore     string
	SessionTTL       time.Duration
	SessionSweepSpec string
	CookieSecure     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	TelegramToken    string
	TelegramChat     string
	TelegramThreadID *int

	MaxUploadMB int64

	LogLevel  string
	LogPretty bool

	DebugPprof bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:         envOrDefault("HTTP_PORT", "3000"),
		APIBaseURL:       envOrDefault("API_BASE_URL", "http://127.0.0.1:5000"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		SessionStore:     envOrDefault("SESSION_STORE", SessionStoreMemory),
		SessionSweepSpec: envOrDefault("SESSION_SWEEP_CRON", "*/10 * * * *"),
		RedisAddr:        envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		DBHost:           envOrDefault("DB_HOST", "localhost"),
		DBPort:           envOrDefault("DB_PORT", "5432"),
		DBUser:           envOrDefault("DB_USERNAME", "postgres"),
		DBPassword:       envOrDefault("DB_PASSWORD", "postgres"),
		DBName:           envOrDefault("DB_DATABASE", "zonebourse"),
		DBSSLMode:        envOrDefault("DB_SSLMODE", "disable"),
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChat:     os.Getenv("TELEGRAM_CHAT_ID"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.APITimeout, err = envOrDuration("API_TIMEOUT", 15*time.Second); err != nil {
		return cfg, err
	}
	if cfg.APIGetRetries, err = envOrInt("API_GET_RETRIES", 0); err != nil {
		return cfg, err
	}
	if cfg.SessionTTL, err = envOrDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.CookieSecure, err = envOrBool("COOKIE_SECURE", false); err != nil {
		return cfg, err
	}
	if cfg.RedisDB, err = envOrInt("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	maxUpload, err := envOrInt("MAX_UPLOAD_MB", 50)
	if err != nil {
		return cfg, err
	}
	cfg.MaxUploadMB = int64(maxUpload)
	if cfg.LogPretty, err = envOrBool("LOG_PRETTY", true); err != nil {
		return cfg, err
	}
	if cfg.DebugPprof, err = envOrBool("DEBUG_PPROF", false); err != nil {
		return cfg, err
	}
	if cfg.TelegramThreadID, err = envOrIntPtr("TELEGRAM_CHAT_THREAD_ID"); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("missing SESSION_SECRET")
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q", c.APIBaseURL)
	}

	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	case SessionStorePostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("missing database configuration")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.APIGetRetries < 0 {
		return errors.New("API_GET_RETRIES must not be negative")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// TelegramEnabled reports whether new listings should be announced.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChat != ""
}

func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envOrInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}
