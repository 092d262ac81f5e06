package common

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is loaded once per
// process and injected into constructors; nothing reads the environment
// at call time.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Fetch    FetchConfig
	Extract  ExtractConfig
	LLM      LLMConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the document-store connection settings.
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// FetchConfig bounds the document download.
type FetchConfig struct {
	Timeout  time.Duration
	MaxBytes int64

	// S3 settings for s3:// references.
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
}

// ExtractConfig holds the text-budget and gate thresholds.
type ExtractConfig struct {
	TokenBudget       int     // preprocessor budget; charBudget = 4x
	AcceptConfidence  float32 // gate floor
	StrongConfidence  float32 // accept despite very large text
	LargeTextBytes    int     // two-pass threshold
	HugeTextBytes     int     // requires StrongConfidence to accept
	ClassifyHeadBytes int     // head excerpt for the classify pass
}

// LLMConfig holds generation-service settings.
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// LogConfig selects handler format and level.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Fetch: FetchConfig{
			Timeout:      getEnvAsDuration("FETCH_TIMEOUT", 60*time.Second),
			MaxBytes:     getEnvAsInt64("FETCH_MAX_BYTES", 100<<20),
			AWSRegion:    getEnv("AWS_REGION", ""),
			AWSAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Extract: ExtractConfig{
			TokenBudget:       getEnvAsInt("EXTRACT_TOKEN_BUDGET", 30000),
			AcceptConfidence:  getEnvAsFloat32("GATE_ACCEPT_CONFIDENCE", 0.4),
			StrongConfidence:  getEnvAsFloat32("GATE_STRONG_CONFIDENCE", 0.6),
			LargeTextBytes:    getEnvAsInt("GATE_LARGE_TEXT_BYTES", 300_000),
			HugeTextBytes:     getEnvAsInt("GATE_HUGE_TEXT_BYTES", 500_000),
			ClassifyHeadBytes: getEnvAsInt("GATE_CLASSIFY_HEAD_BYTES", 50_000),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewInvalidInputError("config", errors.New("DB_URL is required"))
	}
	if c.LLM.APIKey == "" {
		return NewInvalidInputError("config", errors.New("OPENAI_API_KEY is required"))
	}
	if c.Server.Addr == "" {
		return NewInvalidInputError("config", errors.New("HTTP_ADDR is required"))
	}
	if c.Extract.TokenBudget <= 0 {
		return NewInvalidInputError("config", errors.New("EXTRACT_TOKEN_BUDGET must be positive"))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
