package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Security SecurityConfig `json:"security"`
	Email    EmailConfig    `json:"email"`
	Telegram TelegramConfig `json:"telegram"`
	Timezone string         `json:"timezone"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `json:"path"`
}

// SecurityConfig contains authentication settings
type SecurityConfig struct {
	JWTSecret      string   `json:"jwt_secret"`
	TokenTTLHours  int      `json:"token_ttl_hours"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// EmailConfig contains Mailjet settings. Empty keys enable preview mode.
type EmailConfig struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

// TelegramConfig contains the optional Telegram alert channel settings
type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("%w: JWT secret is required", ErrInvalidConfig)
	}

	if c.Security.TokenTTLHours <= 0 {
		c.Security.TokenTTLHours = 24
	}

	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, c.Timezone)
	}

	return nil
}

// Location returns the configured timezone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TokenTTL returns the configured token lifetime
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Security.TokenTTLHours) * time.Hour
}

// Load loads configuration from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromEnv loads configuration from environment variables
// This is useful for containerized deployments
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("KIDSAFE_HOST", "0.0.0.0"),
			Port: getEnvInt("KIDSAFE_PORT", 3001),
		},
		Database: DatabaseConfig{
			Path: getEnv("KIDSAFE_DB_PATH", "./kidsafe.db"),
		},
		Security: SecurityConfig{
			JWTSecret:     getEnv("KIDSAFE_JWT_SECRET", ""),
			TokenTTLHours: getEnvInt("KIDSAFE_TOKEN_TTL_HOURS", 24),
		},
		Email: EmailConfig{
			APIKey:    getEnv("MAILJET_API_KEY", ""),
			APISecret: getEnv("MAILJET_API_SECRET", ""),
			FromEmail: getEnv("EMAIL_FROM", "noreply@kidsafe.app"),
			FromName:  getEnv("EMAIL_FROM_NAME", "KidSafe"),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("KIDSAFE_TELEGRAM_TOKEN", ""),
			ChatID: getEnvInt64("KIDSAFE_TELEGRAM_CHAT_ID", 0),
		},
		Timezone: getEnv("KIDSAFE_TIMEZONE", "UTC"),
		Logging: LoggingConfig{
			Level:  getEnv("KIDSAFE_LOG_LEVEL", "info"),
			Format: getEnv("KIDSAFE_LOG_FORMAT", "json"),
		},
	}

	if origins := getEnv("KIDSAFE_ALLOWED_ORIGINS", "http://localhost:3000"); origins != "" {
		config.Security.AllowedOrigins = []string{origins}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
