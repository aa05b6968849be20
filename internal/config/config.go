package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	LLM       LLMConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins []string // empty means allow all
	AllowedMethods string
	AllowedHeaders string
}

// DatasetConfig says where the listing table is loaded from. A DSN takes
// precedence over the file path.
type DatasetConfig struct {
	Path               string
	DSN                string // 完整的数据库连接字符串（优先使用）
	Table              string
	Manifest           string // empty uses the embedded manifest
	Eager              bool
	LoadTimeout        time.Duration
	MaxConnections     int
	MaxIdleConnections int
}

// LLMConfig holds the OpenAI-compatible chat completion settings
type LLMConfig struct {
	APIKey      string
	APIBase     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// RateLimitConfig holds per-client request limits. RequestsPerMinute <= 0
// disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

const defaultDatasetPath = "./clean/dataset_airbnb-scraper_2024-04-26_08-50-51-029.csv"

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnvAsList("CORS_ORIGINS", getEnvAsList("CORS_ALLOWED_ORIGINS", nil)),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Request-ID"),
		},
		Dataset: DatasetConfig{
			Path: getEnv("DATASET_PATH", defaultDatasetPath),
			// DATABASE_URL kept for deployments that already export it
			DSN:                getEnv("DATASET_DSN", getEnv("DATABASE_URL", "")),
			Table:              getEnv("DATASET_TABLE", "listings"),
			Manifest:           getEnv("DATASET_MANIFEST", ""),
			Eager:              getEnvAsBool("DATASET_EAGER", true),
			LoadTimeout:        getEnvAsDuration("DATASET_LOAD_TIMEOUT", 60*time.Second),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 4),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 1),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", getEnv("OPENAI_API_KEY", ""))),
			APIBase:     getEnv("LLM_API_BASE", "https://api.groq.com/openai/v1"),
			Model:       getEnv("LLM_MODEL", getEnv("GROQ_MODEL", "llama-3.1-8b-instant")),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1000),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 120),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
	}

	if cfg.Dataset.Path == "" && cfg.Dataset.DSN == "" {
		return nil, fmt.Errorf("either DATASET_PATH or DATASET_DSN must be set")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT out of range: %d", cfg.Server.Port)
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid bool value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" && p != "*" {
			out = append(out, p)
		}
	}
	return out
}
