package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	SourceAPI    = "api"
	SourceSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	LogLevel string

	GRPCPort              int
	GRPCReflectionEnabled bool
	GRPCLoggingEnabled    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	TicketSource string
	DBDriver     string
	DBPath       string

	HelpdeskBaseURL  string
	HelpdeskEmail    string
	HelpdeskAPIToken string
	HelpdeskRPS      float64
	HelpdeskTimeout  time.Duration

	PageSize          int
	MaxPages          int
	GroupPageSize     int
	RefreshInterval   time.Duration
	TargetGroupIDs    []int64
	WaitTimeBreach    int
	HandleTimeBreach  int
	MessagingChannels []string
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),
		GRPCLoggingEnabled:    getBool("GRPC_LOGGING_ENABLED", true),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		CacheTTL:      getDuration("CACHE_TTL", 60*time.Second),

		TicketSource: strings.ToLower(getEnv("TICKET_SOURCE", SourceAPI)),
		DBDriver:     getEnv("DB_DRIVER", "sqlite3"),
		DBPath:       getEnv("DB_PATH", "./data/helpdesk.db"),

		HelpdeskBaseURL:  getEnv("HELPDESK_BASE_URL", ""),
		HelpdeskEmail:    getEnv("HELPDESK_EMAIL", ""),
		HelpdeskAPIToken: getEnv("HELPDESK_API_TOKEN", ""),
		HelpdeskRPS:      getFloat("HELPDESK_RPS", 5),
		HelpdeskTimeout:  getDuration("HELPDESK_TIMEOUT", 15*time.Second),

		PageSize:          getInt("PAGE_SIZE", 100),
		MaxPages:          getInt("MAX_PAGES", 50),
		GroupPageSize:     getInt("GROUP_PAGE_SIZE", 100),
		RefreshInterval:   getDuration("REFRESH_INTERVAL", 60*time.Second),
		TargetGroupIDs:    getInt64List("TARGET_GROUP_IDS"),
		WaitTimeBreach:    getInt("WAIT_TIME_BREACH", 30),
		HandleTimeBreach:  getInt("HANDLE_TIME_BREACH", 20),
		MessagingChannels: getStringList("MESSAGING_CHANNELS"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.TicketSource {
	case SourceAPI, SourceSQLite:
	default:
		errs = append(errs, fmt.Errorf("TICKET_SOURCE must be %q or %q, got %q", SourceAPI, SourceSQLite, c.TicketSource))
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("GRPC_PORT out of range: %d", c.GRPCPort))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("PAGE_SIZE must be positive"))
	}
	if c.MaxPages <= 0 {
		errs = append(errs, errors.New("MAX_PAGES must be positive"))
	}
	if c.WaitTimeBreach < 0 || c.HandleTimeBreach < 0 {
		errs = append(errs, errors.New("breach thresholds must not be negative"))
	}

	return errors.Join(errs...)
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zc = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	return zc.Build()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// getStringList splits a comma separated value; empty entries are dropped.
func getStringList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getInt64List parses a comma separated id list, skipping malformed entries.
func getInt64List(key string) []int64 {
	var out []int64
	for _, s := range getStringList(key) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
