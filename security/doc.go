// Package security holds the TLS settings used by HTTP transports.
//
//	cfg := security.TLSConfig{
//	    CAFile:     "/etc/ssl/upstream-ca.pem",
//	    MinVersion: "1.3",
//	}
//	tlsConfig, err := cfg.Build()
package security
