package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBSource string `yaml:"db_source"`
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`

	JWTSecret string `yaml:"jwt_secret"`

	// Role grants consumed by the static role checker.
	Admins          []string `yaml:"admins"`
	RewardProviders []string `yaml:"reward_providers"`

	// Pool accounts the engines move funds through.
	StakingPoolAccount string `yaml:"staking_pool_account"`
	VestingPoolAccount string `yaml:"vesting_pool_account"`

	Vesting VestingConfig `yaml:"vesting"`
}

type VestingConfig struct {
	Owner         string    `yaml:"owner"`
	Beneficiary   string    `yaml:"beneficiary"`
	Start         time.Time `yaml:"start"`
	Duration      string    `yaml:"duration"` // time.ParseDuration format, e.g. "1680h"
	ReleasesCount int64     `yaml:"releases_count"`
	Revocable     bool      `yaml:"revocable"`
}

// ParseDuration parses the release period length.
func (v VestingConfig) ParseDuration() (time.Duration, error) {
	d, err := time.ParseDuration(v.Duration)
	if err != nil {
		return 0, fmt.Errorf("vesting duration: %w", err)
	}
	return d, nil
}

// Load reads the optional CONFIG_FILE and then applies environment
// overrides. DB_SOURCE must be set one way or the other.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               "8080",
		Env:                "development",
		StakingPoolAccount: "staking-pool",
		VestingPoolAccount: "vesting-pool",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if v := os.Getenv("DB_SOURCE"); v != "" {
		cfg.DBSource = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}

	if cfg.DBSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
