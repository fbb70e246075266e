// Package config loads runtime configuration from the environment.
package config

import "github.com/kelseyhightower/envconfig"

// Config holds the runtime configuration of the tally CLI. All variables
// carry the TALLY_ prefix.
type Config struct {
	DBPath      string `envconfig:"DB_PATH" default:"./data/tally.db"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("tally", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
