package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	CORSAllowedOrigins []string

	// Rolling-window limits per plan; enterprise bypasses the limiter.
	RateWindow    time.Duration
	RateLimitFree int
	RateLimitPro  int

	// Default billing-period quota installed for new users per plan.
	UsageLimitFree int
	UsageLimitPro  int

	StreamPollInterval time.Duration

	GenAIAPIKey  string
	GenAIBaseURL string
	GenAIModel   string
	GenAITimeout time.Duration

	DBMaxConns int32
	DBMinConns int32
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		CORSAllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")},

		RateWindow:    time.Second * time.Duration(getEnvInt("RATE_WINDOW_SECONDS", 3600)),
		RateLimitFree: getEnvInt("RATE_LIMIT_FREE", 10),
		RateLimitPro:  getEnvInt("RATE_LIMIT_PRO", 60),

		UsageLimitFree: getEnvInt("USAGE_LIMIT_FREE", 25),
		UsageLimitPro:  getEnvInt("USAGE_LIMIT_PRO", 500),

		StreamPollInterval: time.Millisecond * time.Duration(getEnvInt("STREAM_POLL_INTERVAL_MS", 500)),

		GenAIAPIKey:  os.Getenv("GENAI_API_KEY"),
		GenAIBaseURL: getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenAIModel:   getEnv("GENAI_MODEL", "gemini-1.5-flash"),
		GenAITimeout: time.Second * time.Duration(getEnvInt("GENAI_TIMEOUT_SECONDS", 120)),

		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMinConns: int32(getEnvInt("DB_MIN_CONNS", 1)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("RATE_WINDOW_SECONDS must be positive")
	}

	return cfg, nil
}

// RateLimitForPlan maps a plan name to its rolling-window request limit.
// A limit of zero means the plan is not limited.
func (c *Config) RateLimitForPlan(plan string) int {
	switch plan {
	case "pro":
		return c.RateLimitPro
	case "enterprise":
		return 0
	default:
		return c.RateLimitFree
	}
}

// UsageLimitForPlan maps a plan name to its default billing-period quota.
func (c *Config) UsageLimitForPlan(plan string) int {
	switch plan {
	case "pro":
		return c.UsageLimitPro
	case "enterprise":
		return -1
	default:
		return c.UsageLimitFree
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
