package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the optional YAML tuning file for the engine and outbox.
// Every field has a sane default; the file is only needed to override them.
type Config struct {
	Engine struct {
		TickIntervalMS int `yaml:"tick_interval_ms"`
	} `yaml:"engine"`
	Outbox struct {
		PollIntervalMS int `yaml:"poll_interval_ms"`
		BatchSize      int `yaml:"batch_size"`
	} `yaml:"outbox"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	var config Config
	config.Engine.TickIntervalMS = 1000
	config.Outbox.PollIntervalMS = 1000
	config.Outbox.BatchSize = 100
	return &config
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func (c *Config) tickInterval() time.Duration {
	return time.Duration(c.Engine.TickIntervalMS) * time.Millisecond
}

func (c *Config) outboxPollInterval() time.Duration {
	return time.Duration(c.Outbox.PollIntervalMS) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
