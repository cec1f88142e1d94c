// Package config loads service settings from defaults, an optional YAML file,
// a .env file and the process environment, in increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/logging"
)

type Config struct {
	// HTTP Server
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"corsOrigin"`

	// Database
	DBDriver    string `yaml:"dbDriver"`
	DBPath      string `yaml:"dbPath"`
	DatabaseURL string `yaml:"databaseURL"`

	// Auth
	JWTSecret string `yaml:"jwtSecret"`
	JWTExpire string `yaml:"jwtExpire"`

	// AMQP
	AMQPURL      string `yaml:"amqpURL"`
	AMQPExchange string `yaml:"amqpExchange"`

	// Settlement
	TieBreak  string `yaml:"tieBreak"`
	Tolerance int64  `yaml:"tolerance"`

	LogLevel string `yaml:"logLevel"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Port:         "8080",
		CORSOrigin:   "*",
		DBDriver:     storage.DriverSQLite,
		DBPath:       "./data/settleup.db",
		JWTExpire:    "7d",
		AMQPExchange: "settleup",
		TieBreak:     string(calculator.TieBreakInputOrder),
		LogLevel:     "info",
	}
}

// Load builds the configuration. A missing .env file is not an error;
// a missing YAML file at an explicit path is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays a YAML file. ${VAR} references are expanded from the
// environment before parsing.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.CORSOrigin = getEnv("CORS_ORIGIN", c.CORSOrigin)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTExpire = getEnv("JWT_EXPIRE", c.JWTExpire)
	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.TieBreak = getEnv("SETTLEMENT_TIE_BREAK", c.TieBreak)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("SETTLEMENT_TOLERANCE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SETTLEMENT_TOLERANCE %q: %w", v, err)
		}
		c.Tolerance = n
	}
	return nil
}

// TokenDuration parses JWTExpire. A bare number or a "d" suffix means days;
// anything else is a Go duration such as "12h".
func (c *Config) TokenDuration() (time.Duration, error) {
	s := strings.TrimSpace(c.JWTExpire)
	if days, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil {
		if days <= 0 {
			return 0, fmt.Errorf("token lifetime must be positive, got %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid token lifetime %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token lifetime must be positive, got %q", s)
	}
	return d, nil
}

// Planner returns the settlement planner described by the configuration.
func (c *Config) Planner() (calculator.Planner, error) {
	tb, err := calculator.ParseTieBreak(c.TieBreak)
	if err != nil {
		return calculator.Planner{}, err
	}
	return calculator.Planner{TieBreak: tb, Tolerance: money.Amount(c.Tolerance)}, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == storage.DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Validate validates the configuration and returns an error if invalid.
// requireSecret is false for commands that never issue or check tokens.
func (c *Config) Validate(requireSecret bool) error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case storage.DriverSQLite:
		if c.DBPath == "" {
			errors = append(errors, "DB_PATH cannot be empty when using the sqlite driver")
		}
	case storage.DriverPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using the postgres driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [%s %s]",
			c.DBDriver, storage.DriverSQLite, storage.DriverPostgres))
	}

	if requireSecret && len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if _, err := c.TokenDuration(); err != nil {
		errors = append(errors, err.Error())
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
	}

	if _, err := calculator.ParseTieBreak(c.TieBreak); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.Tolerance < 0 {
		errors = append(errors, fmt.Sprintf("invalid settlement tolerance %d: must not be negative", c.Tolerance))
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
