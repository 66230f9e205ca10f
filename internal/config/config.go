package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (empty URL disables the broker; alerts fall back to the log)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Budget check worker
	BudgetCheckInterval time.Duration

	// Currency rates
	RatesAPIURL string
	RateCodes   []string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetd.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetd"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_alerts"),

		BudgetCheckInterval: getEnvDuration("BUDGET_CHECK_INTERVAL", time.Hour),

		RatesAPIURL: getEnv("RATES_API_URL", "https://api.nbrb.by/exrates/rates?periodicity=0"),
		RateCodes:   getEnvList("RATE_CODES", []string{"USD", "EUR"}),
	}

	return cfg
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

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

	if c.BudgetCheckInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid budget check interval %v: must be at least 1 minute", c.BudgetCheckInterval))
	} else if c.BudgetCheckInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid budget check interval %v: must be at most 24 hours", c.BudgetCheckInterval))
	}

	if c.RatesAPIURL != "" {
		if parsedURL, err := url.Parse(c.RatesAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid rates API URL '%s': %v", c.RatesAPIURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid rates API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}
	for _, code := range c.RateCodes {
		if len(code) != 3 || code != strings.ToUpper(code) {
			errors = append(errors, fmt.Sprintf("invalid currency code '%s': must be three uppercase letters", code))
		}
	}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
