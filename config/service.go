package config

import (
	"fmt"

	"github.com/kbukum/sigdispatch/logger"
	"github.com/kbukum/sigdispatch/validation"
)

// Environments accepted by ServiceConfig.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds the identity and logging settings shared by every
// service that embeds the dispatcher. Embed it with squash:
//
//	type Settings struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Dispatch dispatch.Config `yaml:"dispatch" mapstructure:"dispatch"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults sets the development environment and logging defaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the service identity and the logging section.
func (c *ServiceConfig) Validate() error {
	err := validation.New().
		Required("name", c.Name).
		Required("environment", c.Environment).
		OneOf("environment", c.Environment, Environments).
		Err()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Logger builds the service logger from the logging section.
func (c *ServiceConfig) Logger() *logger.Logger {
	return logger.New(&c.Logging, c.Name)
}
