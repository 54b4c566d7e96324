package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// LoadTestConfig loads the configuration for integration tests from TEST_* variables.
// When the test database is not configured it returns a Config with an empty
// Database.Host, which tells the caller to skip.
func LoadTestConfig() (*Config, error) {
	// Try loading .env from project root (optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		JWT: JWTConfig{
			Secret:            "integration-test-secret-key",
			AccessTokenExpiry: time.Hour,
		},
		RateLimit:      1000,
		OpeningBalance: decimal.RequireFromString("100000.00"),
	}
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Database.MaxOpenConns = 5
	cfg.Database.MaxIdleConns = 2
	cfg.APIKey = "integration-api-key"

	for _, key := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
		if os.Getenv(key) == "" {
			return cfg, nil
		}
	}

	port, err := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}

	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	cfg.Database.Port = port
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")

	if secret := os.Getenv("TEST_JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	return cfg, nil
}
