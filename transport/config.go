package transport

import (
	"fmt"
	"time"

	"github.com/kbukum/sigdispatch/provider"
	"github.com/kbukum/sigdispatch/security"
	"github.com/kbukum/sigdispatch/validation"
)

const (
	defaultName                = "http"
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// Config configures the net/http transport.
type Config struct {
	// Name identifies the transport in logs, spans and metrics. Defaults to "http".
	Name string `yaml:"name" mapstructure:"name"`

	// Timeout bounds the whole exchange including reading the response body.
	// Zero means no client-side limit; cancellation comes from the context.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// MaxIdleConns limits idle connections across all hosts. Defaults to 100.
	MaxIdleConns int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`

	// MaxIdleConnsPerHost limits idle connections per host. Defaults to 10.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`

	// IdleConnTimeout closes idle connections after this long. Defaults to 90s.
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`

	// FollowRedirects makes the transport follow 3xx responses.
	// Off by default: redirects are returned to the caller as responses.
	FollowRedirects bool `yaml:"follow_redirects" mapstructure:"follow_redirects"`

	// Resilience configures optional circuit breaker, rate limiter and bulkhead guards.
	Resilience provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = defaultIdleConnTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	err := validation.New().
		Required("name", c.Name).
		NonNegativeDuration("timeout", c.Timeout).
		NonNegativeDuration("idle_conn_timeout", c.IdleConnTimeout).
		Min("max_idle_conns", c.MaxIdleConns, 0).
		Min("max_idle_conns_per_host", c.MaxIdleConnsPerHost, 0).
		Err()
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return fmt.Errorf("transport: %w", err)
		}
	}
	return nil
}
