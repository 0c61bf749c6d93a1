// Package config loads server configuration from a YAML file and
// environment variables (env values win over file values). It reads no
// CLI flags; the caller passes in the config file path.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthMode selects which auth.Provider backend to construct.
type AuthMode string

const (
	AuthModeEnvToken     AuthMode = "env-token"
	AuthModeCLI          AuthMode = "cli"
	AuthModeDefaultChain AuthMode = "default"
	AuthModeInteractive  AuthMode = "interactive"
)

// Config holds the full set of values the server needs before it can start
// scanning connections.
type Config struct {
	SubscriptionID string   `yaml:"subscriptionId"`
	ResourceGroup  string   `yaml:"resourceGroup"`
	Location       string   `yaml:"location"`
	Auth           AuthMode `yaml:"auth"`

	// ARM pipeline tuning.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxRetries     int           `yaml:"maxRetries"`
	RateLimitRPS   float64       `yaml:"rateLimitRPS"`

	// LogFile, when set, redirects structured logs there instead of stderr.
	LogFile  string `yaml:"logFile"`
	LogLevel string `yaml:"logLevel"`
}

// Default returns a Config with the documented defaults applied.
func Default() Config {
	return Config{
		Location:       "westus",
		Auth:           AuthModeDefaultChain,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RateLimitRPS:   0, // 0 disables the throttle
		LogLevel:       "info",
	}
}

// Load reads a YAML config file (if path is non-empty) and overlays
// environment variables. It returns the default config merged with whatever
// was found.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ARM_MCP_SUBSCRIPTION_ID"); v != "" {
		cfg.SubscriptionID = v
	}
	if v := os.Getenv("ARM_MCP_RESOURCE_GROUP"); v != "" {
		cfg.ResourceGroup = v
	}
	if v := os.Getenv("ARM_MCP_LOCATION"); v != "" {
		cfg.Location = v
	}
	if v := os.Getenv("ARM_MCP_AUTH_TOKEN"); v != "" {
		cfg.Auth = AuthModeEnvToken
	}
}

// Validate checks that the required ARM context values are present.
func (c Config) Validate() error {
	if c.SubscriptionID == "" {
		return fmt.Errorf("subscriptionId is required")
	}
	if c.ResourceGroup == "" {
		return fmt.Errorf("resourceGroup is required")
	}
	if c.Location == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}
