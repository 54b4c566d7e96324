// Package config provides configuration for the application
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Placeholder values that must never reach a running server
const (
	PlaceholderDBPassword = "CLICK_TO:REVEAL_PASSWORD"
	DefaultJWTSecret      = "kodbank_secret_key_2026"
	minJWTSecretLength    = 16
)

// ErrPlaceholderSecret is returned by Validate when a secret still holds a placeholder value
var ErrPlaceholderSecret = errors.New("placeholder secret configured")

// Config holds all configuration for the application
type Config struct {
	Database       DatabaseConfig
	Server         ServerConfig
	Logging        LoggingConfig
	CORS           CORSConfig
	JWT            JWTConfig
	Cookie         CookieConfig
	APIKey         string
	RateLimit      int
	OpeningBalance decimal.Decimal
	// TokenPurgeSchedule is a standard cron expression, empty disables the purge job
	TokenPurgeSchedule string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	TLS          string
	MaxOpenConns int
	MaxIdleConns int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CookieConfig holds session cookie settings
type CookieConfig struct {
	Secure bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// Database configuration
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = intEnv("DB_PORT", 0, true); err != nil {
		return nil, err
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Database.TLS = os.Getenv("DB_TLS")
	if cfg.Database.MaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", 10, false); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = intEnv("DB_MAX_IDLE_CONNS", 5, false); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intEnv("SERVER_PORT", 5000, false); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = envOrDefault("LOG_LEVEL", "info")
	cfg.Logging.Format = envOrDefault("LOG_FORMAT", "json")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))

	// JWT configuration
	if cfg.JWT.Secret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}
	cfg.JWT.AccessTokenExpiry, err = time.ParseDuration(envOrDefault("JWT_ACCESS_TOKEN_EXPIRY", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRY: %w", err)
	}

	// Cookie configuration
	cfg.Cookie.Secure, err = strconv.ParseBool(envOrDefault("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	// API Key configuration (optional, enables maintenance routes)
	cfg.APIKey = os.Getenv("API_KEY")

	if cfg.RateLimit, err = intEnv("RATE_LIMIT_PER_MINUTE", 100, false); err != nil {
		return nil, err
	}

	cfg.OpeningBalance, err = decimal.NewFromString(envOrDefault("OPENING_BALANCE", "100000.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPENING_BALANCE: %w", err)
	}

	cfg.TokenPurgeSchedule = strings.TrimSpace(envOrDefault("TOKEN_PURGE_SCHEDULE", "0 * * * *"))
	if strings.EqualFold(cfg.TokenPurgeSchedule, "off") {
		cfg.TokenPurgeSchedule = ""
	}

	return cfg, nil
}

// Validate rejects configurations that still carry placeholder secrets
// or values the server cannot run with.
func (c *Config) Validate() error {
	if c.Database.Password == PlaceholderDBPassword {
		return fmt.Errorf("%w: DB_PASSWORD", ErrPlaceholderSecret)
	}
	if c.JWT.Secret == DefaultJWTSecret || len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf("%w: JWT_SECRET must be a private value of at least %d bytes", ErrPlaceholderSecret, minJWTSecretLength)
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRY must be positive")
	}
	if c.OpeningBalance.IsNegative() {
		return fmt.Errorf("OPENING_BALANCE must not be negative")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.TokenPurgeSchedule != "" {
		schedule, err := cron.ParseStandard(c.TokenPurgeSchedule)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_PURGE_SCHEDULE: %w", err)
		}
		// Next returns the zero time for schedules that never fire, e.g. Feb 30
		if schedule.Next(time.Now()).IsZero() {
			return fmt.Errorf("invalid TOKEN_PURGE_SCHEDULE: %q never fires", c.TokenPurgeSchedule)
		}
	}
	return nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.Database.User
	dsn.Passwd = c.Database.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
	dsn.DBName = c.Database.DBName
	dsn.ParseTime = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	dsn.TLSConfig = c.Database.TLS
	return dsn.FormatDSN()
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int, required bool) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		if required {
			return 0, fmt.Errorf("%s is required", key)
		}
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// parseOrigins splits a comma separated origin list
func parseOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, origin := range parts {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
