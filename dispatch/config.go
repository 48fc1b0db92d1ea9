package dispatch

import (
	"context"
	"fmt"

	"github.com/kbukum/sigdispatch/config"
	"github.com/kbukum/sigdispatch/observability"
	"github.com/kbukum/sigdispatch/transport"
	"github.com/kbukum/sigdispatch/validation"
)

// Config configures a dispatcher and the transport it owns.
type Config struct {
	// Name identifies the dispatcher in logs, spans and metrics. Defaults to "dispatch".
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// ReadBufferSize is the response body read buffer. Defaults to 32 KiB.
	ReadBufferSize int `yaml:"read_buffer_size" mapstructure:"read_buffer_size" validate:"gte=512,lte=16777216"`

	// Transport configures the net/http transport.
	Transport transport.Config `yaml:"transport" mapstructure:"transport"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	c.Transport.ApplyDefaults()
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return c.Transport.Validate()
}

// Settings is the full configuration of a service that dispatches signed requests.
//
//	name: uploader
//	logging:
//	  level: debug
//	dispatch:
//	  read_buffer_size: 65536
//	  transport:
//	    timeout: 0s
//	    resilience:
//	      circuit_breaker:
//	        max_failures: 5
//	telemetry:
//	  enabled: true
type Settings struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Dispatch  Config               `yaml:"dispatch" mapstructure:"dispatch"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults applies defaults to every section.
func (s *Settings) ApplyDefaults() {
	s.ServiceConfig.ApplyDefaults()
	s.Dispatch.ApplyDefaults()
	s.Telemetry.ApplyDefaults()
}

// Validate validates every section.
func (s *Settings) Validate() error {
	if err := s.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := s.Dispatch.Validate(); err != nil {
		return err
	}
	return s.Telemetry.Validate()
}

// SetupTelemetry starts the exporters configured in s and returns the client
// options that report to them. With telemetry disabled no options are returned.
func SetupTelemetry(ctx context.Context, s *Settings) (*observability.Telemetry, []Option, error) {
	tel, err := observability.Setup(ctx, s.Telemetry, s.Name, s.Version, s.Environment)
	if err != nil {
		return nil, nil, err
	}
	if !tel.Enabled() {
		return tel, nil, nil
	}
	return tel, []Option{WithTracing(s.Name), WithMetrics(tel.Metrics)}, nil
}

// LoadSettings loads Settings for serviceName from YAML, .env and the
// environment, then applies defaults and validates.
func LoadSettings(serviceName string, opts ...config.LoaderOption) (*Settings, error) {
	var s Settings
	if err := config.LoadConfig(serviceName, &s, opts...); err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
