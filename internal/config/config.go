package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the portfolio API.
type Config struct {
	Environment string

	Server   ServerConfig
	Logging  LoggingConfig
	Security SecurityConfig
	LLM      LLMConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port         int
	TLSPort      int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	EnableTLS   bool
	AutoCert    bool
	Domain      string
	CertFile    string
	KeyFile     string
	AutoCertDir string
	Email       string

	AllowedOrigins []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// SecurityConfig carries the IDS and classifier thresholds. The defaults are
// the values the whole blocking behavior is tuned around; change them and you
// change what gets blocked.
type SecurityConfig struct {
	FailedLoginThreshold int
	RateLimitWindow      time.Duration
	MaxRequestsPerWindow int
	SuspiciousScore      int
	BlockScore           int
	MaxEvents            int
	MaxViolations        int
	EventRetention       time.Duration
	ViolationRetention   time.Duration
	CleanupInterval      time.Duration
	SummaryInterval      time.Duration
	MaxMessageLength     int
	MaxChatPayloadLength int
	RateLimits           map[string]RateLimitRule
}

// RateLimitRule is one category row of the fixed-window rate limit table.
type RateLimitRule struct {
	Points        int
	Duration      time.Duration
	BlockDuration time.Duration
}

type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
	CacheTTL time.Duration
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	VerifyURL string
	Timeout   time.Duration
}

type NotifyConfig struct {
	AdminEmail     string
	SendAlerts     bool
	AlertThreshold string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8080),
			TLSPort:        getEnvInt("SERVER_TLS_PORT", 8443),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			EnableTLS:      getEnvBool("ENABLE_TLS", false),
			AutoCert:       getEnvBool("AUTO_CERT", false),
			Domain:         getEnv("SERVER_DOMAIN", ""),
			CertFile:       getEnv("TLS_CERT_FILE", ""),
			KeyFile:        getEnv("TLS_KEY_FILE", ""),
			AutoCertDir:    getEnv("AUTO_CERT_DIR", "/var/cache/autocert"),
			Email:          getEnv("TLS_EMAIL", ""),
			AllowedOrigins: []string{getEnv("APP_URL", "http://localhost:3000")},
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: DefaultSecurityConfig(),
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 300),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 20),
			CacheTTL: getEnvDuration("CHAT_CACHE_TTL", 10*time.Minute),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			VerifyURL: getEnv("AUTH_VERIFY_URL", ""),
			Timeout:   getEnvDuration("AUTH_TIMEOUT", 5*time.Second),
		},
		Notify: NotifyConfig{
			AdminEmail:     getEnv("ADMIN_EMAIL", ""),
			SendAlerts:     getEnvBool("SEND_ALERTS", true),
			AlertThreshold: getEnv("ALERT_THRESHOLD", "high"),
		},
	}
}

// DefaultSecurityConfig returns the threshold table the detectors are
// specified against.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		FailedLoginThreshold: 5,
		RateLimitWindow:      60 * time.Second,
		MaxRequestsPerWindow: 50,
		SuspiciousScore:      70,
		BlockScore:           80,
		MaxEvents:            1000,
		MaxViolations:        500,
		EventRetention:       24 * time.Hour,
		ViolationRetention:   7 * 24 * time.Hour,
		CleanupInterval:      time.Hour,
		SummaryInterval:      24 * time.Hour,
		MaxMessageLength:     2000,
		MaxChatPayloadLength: 10000,
		RateLimits: map[string]RateLimitRule{
			"chat":    {Points: 10, Duration: 60 * time.Second, BlockDuration: 120 * time.Second},
			"contact": {Points: 5, Duration: 300 * time.Second, BlockDuration: 600 * time.Second},
			"api":     {Points: 30, Duration: 60 * time.Second, BlockDuration: 60 * time.Second},
			"admin":   {Points: 20, Duration: 60 * time.Second, BlockDuration: 300 * time.Second},
		},
	}
}

// GetServerAddress returns the host:port the plain HTTP listener binds to.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
