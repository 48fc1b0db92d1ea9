package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/kbukum/sigdispatch/validation"
)

var tlsVersions = map[string]uint16{
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig holds client-side TLS settings for an HTTP transport.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	// Not recommended for production.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is the path to the CA certificate file for verifying the server.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CAPEM is an inline PEM bundle added to the trusted roots next to CAFile.
	CAPEM string `yaml:"ca_pem" mapstructure:"ca_pem"`

	// CertFile is the path to the client TLS certificate file (for mTLS).
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// KeyFile is the path to the client TLS key file (for mTLS).
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the server name used for certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is the minimum TLS version, "1.2" or "1.3". Defaults to "1.2".
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// Build returns the client *tls.Config, or nil when nothing is configured
// and the transport should use its defaults.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	roots, err := c.roots()
	if err != nil {
		return nil, err
	}
	certs, err := c.clientCerts()
	if err != nil {
		return nil, err
	}

	minVersion, ok := tlsVersions[c.MinVersion]
	if !ok {
		minVersion = tls.VersionTLS12
	}
	return &tls.Config{
		InsecureSkipVerify: c.SkipVerify,
		ServerName:         c.ServerName,
		MinVersion:         minVersion,
		RootCAs:            roots,
		Certificates:       certs,
	}, nil
}

// Validate checks that cert and key come as a pair and the version is known.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	return validation.New().
		Custom((c.CertFile != "") == (c.KeyFile != ""), "tls", "cert_file and key_file must be provided together").
		OneOf("tls.min_version", c.MinVersion, []string{"1.2", "1.3"}).
		Err()
}

// IsEnabled reports whether any setting differs from the zero value.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && *c != TLSConfig{}
}

// roots is the pool built from CAFile and CAPEM, or nil for the system roots.
func (c *TLSConfig) roots() (*x509.CertPool, error) {
	if c.CAFile == "" && c.CAPEM == "" {
		return nil, nil
	}
	pool := x509.NewCertPool()
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: read CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("security/tls: no CA certificate in %s", c.CAFile)
		}
	}
	if c.CAPEM != "" && !pool.AppendCertsFromPEM([]byte(c.CAPEM)) {
		return nil, fmt.Errorf("security/tls: no CA certificate in ca_pem")
	}
	return pool, nil
}

// clientCerts loads the mTLS key pair when one is configured.
func (c *TLSConfig) clientCerts() ([]tls.Certificate, error) {
	if c.CertFile == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("security/tls: load client certificate: %w", err)
	}
	return []tls.Certificate{cert}, nil
}
