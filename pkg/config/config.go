package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Backend struct {
		Type string `yaml:"type"` // "clickhouse" (direct write) or "kafka"
	} `yaml:"backend"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Consumer     struct {
			GroupID    string        `yaml:"group_id"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	CoinGecko struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Coins   []string      `yaml:"coins"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"coingecko"`
	Ingest struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"ingest"`
	Query struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"query"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("COINS"); v != "" {
		c.CoinGecko.Coins = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = "clickhouse"
	}
	if c.CoinGecko.BaseURL == "" {
		c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.CoinGecko.Timeout == 0 {
		c.CoinGecko.Timeout = 10 * time.Second
	}
	if c.Ingest.Interval == 0 {
		c.Ingest.Interval = 2 * time.Hour
	}
	if c.ClickHouse.Table == "" {
		c.ClickHouse.Table = "observations"
	}
	if c.Query.CacheTTL == 0 {
		c.Query.CacheTTL = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type != "clickhouse" && c.Backend.Type != "kafka" {
		return fmt.Errorf("backend.type must be 'clickhouse' or 'kafka', got '%s'", c.Backend.Type)
	}
	if len(c.CoinGecko.Coins) == 0 {
		return fmt.Errorf("coingecko.coins cannot be empty")
	}
	if c.Backend.Type == "kafka" {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers are required for the kafka backend")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required for the kafka backend")
		}
	}
	return nil
}
