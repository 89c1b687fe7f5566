// Package config loads finsim settings and scenario files from TOML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes the environment variables overriding settings.
const EnvPrefix = "FINSIM_"

// Config holds the settings of the finsim commands.
type Config struct {
	Environment string           `toml:"environment"`
	Currency    string           `toml:"currency"`
	Logging     LoggingConfig    `toml:"logging"`
	Market      MarketConfig     `toml:"market"`
	Simulation  SimulationConfig `toml:"simulation"`
	Clients     ClientsConfig    `toml:"clients"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// MarketConfig locates the market data file.
type MarketConfig struct {
	Path string `toml:"path"`
}

// SimulationConfig holds the simulator defaults.
type SimulationConfig struct {
	RiskFreeRate float64 `toml:"risk_free_rate"` // used when a scenario declares none
	Concurrency  int     `toml:"concurrency"`
	CacheSize    int     `toml:"cache_size"`
}

// ClientsConfig holds the market data providers configurations.
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
	BCB   BCBConfig   `toml:"bcb"`
}

// EODHDConfig holds EODHD API configuration.
type EODHDConfig struct {
	BaseURL   string  `toml:"base_url"`
	APIKey    string  `toml:"api_key"`
	RateLimit float64 `toml:"rate_limit"` // requests per second
	Timeout   string  `toml:"timeout"`
	CacheDir  string  `toml:"cache_dir"`
}

// GetTimeout parses and returns the timeout duration.
func (c *EODHDConfig) GetTimeout() time.Duration { return parseTimeout(c.Timeout) }

// BCBConfig holds the Banco Central SGS API configuration.
type BCBConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration.
func (c *BCBConfig) GetTimeout() time.Duration { return parseTimeout(c.Timeout) }

func parseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Currency:    "BRL",
		Logging:     LoggingConfig{Level: "info"},
		Market:      MarketConfig{Path: "market.jsonl"},
		Simulation: SimulationConfig{
			Concurrency: 4,
			CacheSize:   128,
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 5,
				Timeout:   "30s",
			},
			BCB: BCBConfig{
				BaseURL: "https://api.bcb.gov.br/dados/serie",
				Timeout: "30s",
			},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones, missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	config.Currency = strings.ToUpper(config.Currency)
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv(EnvPrefix + "ENV"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv(EnvPrefix + "CURRENCY"); v != "" {
		config.Currency = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "MARKET"); v != "" {
		config.Market.Path = v
	}
	if v := os.Getenv(EnvPrefix + "EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
	if v := os.Getenv(EnvPrefix + "EODHD_BASE_URL"); v != "" {
		config.Clients.EODHD.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "BCB_BASE_URL"); v != "" {
		config.Clients.BCB.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "RISK_FREE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRISK_FREE_RATE %q: %w", EnvPrefix, v, err)
		}
		config.Simulation.RiskFreeRate = rate
	}
	if v := os.Getenv(EnvPrefix + "CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sCONCURRENCY %q: %w", EnvPrefix, v, err)
		}
		config.Simulation.Concurrency = n
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
