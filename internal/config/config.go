// Package config loads the service configuration from a YAML file, an
// optional .env file and TARIFF_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port          string `yaml:"port"`
	UploadLimitMB int64  `yaml:"upload_limit_mb"`
}

type SessionConfig struct {
	Secret           string        `yaml:"secret"`
	TTLStr           string        `yaml:"ttl"`
	SweepIntervalStr string        `yaml:"sweep_interval"`
	TTL              time.Duration `yaml:"-"`
	SweepInterval    time.Duration `yaml:"-"`
}

type QuoteLogConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	Workers int    `yaml:"workers"`
	Queue   int    `yaml:"queue"`
}

// Enabled reports whether quotes should be written to a database.
func (q QuoteLogConfig) Enabled() bool {
	return q.DSN != ""
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	QuoteLog QuoteLogConfig `yaml:"quote_log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:          "8080",
			UploadLimitMB: 10,
		},
		Session: SessionConfig{
			TTLStr:           "30m",
			SweepIntervalStr: "1m",
		},
		QuoteLog: QuoteLogConfig{
			Driver:  "postgres",
			Workers: 2,
			Queue:   100,
		},
	}
}

// Load reads the configuration. A missing configPath or envPath is not
// an error; every other read or parse failure is.
func Load(configPath string, envPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.parse(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "TARIFF_PORT")
	setString(&c.Session.Secret, "TARIFF_SESSION_SECRET")
	setString(&c.Session.TTLStr, "TARIFF_SESSION_TTL")
	setString(&c.Session.SweepIntervalStr, "TARIFF_SWEEP_INTERVAL")
	setString(&c.QuoteLog.Driver, "TARIFF_DB_DRIVER")
	setString(&c.QuoteLog.DSN, "TARIFF_DB_DSN")

	if v := os.Getenv("TARIFF_UPLOAD_LIMIT_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse TARIFF_UPLOAD_LIMIT_MB: %w", err)
		}
		c.Server.UploadLimitMB = n
	}

	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func (c *Config) parse() error {
	var err error

	c.Session.TTL, err = time.ParseDuration(c.Session.TTLStr)
	if err != nil {
		return fmt.Errorf("failed to parse session ttl: %w", err)
	}

	c.Session.SweepInterval, err = time.ParseDuration(c.Session.SweepIntervalStr)
	if err != nil {
		return fmt.Errorf("failed to parse sweep interval: %w", err)
	}

	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return errors.New("session ttl and sweep interval must be positive")
	}

	if c.Server.UploadLimitMB <= 0 {
		return errors.New("upload limit must be positive")
	}

	return nil
}
