package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; without it the sync endpoint reports unavailable)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Market data upstream (CSE)
	MarketDataBaseURL string
	MarketDataTimeout time.Duration

	// Store timeouts for engine fan-out calls
	StoreTimeout time.Duration

	// Worker
	SyncConcurrency int
	RefreshInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "4000"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/stocktracker.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "stocktracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_companies"),

		MarketDataBaseURL: getEnv("CSE_BASE_URL", "https://www.cse.lk/api"),
		MarketDataTimeout: getEnvDuration("CSE_TIMEOUT", 10*time.Second),

		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 5*time.Second),

		SyncConcurrency: getEnvInt("SYNC_CONCURRENCY", 4),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 30*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite configuration. The directory itself is created by the
	// repository constructor; validation only reports.
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate market data upstream
	if c.MarketDataBaseURL == "" {
		errors = append(errors, "market data base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.MarketDataBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid market data base URL '%s': %v", c.MarketDataBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid market data base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.MarketDataTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid market data timeout %v: must be at least 1 second", c.MarketDataTimeout))
	}

	if c.StoreTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be at least 100ms", c.StoreTimeout))
	}

	// Validate worker configuration
	if c.SyncConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync concurrency %d: must be at least 1", c.SyncConcurrency))
	} else if c.SyncConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid sync concurrency %d: must be at most 64", c.SyncConcurrency))
	}

	if c.RefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 minute", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
