package dispatchevent

import (
	"fmt"
	"time"

	"event-notifications/internal/common/config"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

// ConfigFromApp derives the worker settings from the camunda section.
// Unset values keep their defaults.
func ConfigFromApp(c config.CamundaConfig) *Config {
	cfg := DefaultConfig()
	cfg.Enabled = c.BrokerAddress != ""
	if c.MaxJobsActive > 0 {
		cfg.MaxJobsActive = c.MaxJobsActive
	}
	if c.Timeout > 0 {
		cfg.Timeout = time.Duration(c.Timeout) * time.Millisecond
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
