// Package tls configures HTTPS for the shopping list API server.
package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"

	"shoppinglist/internal/logging"
)

// ErrDisabled is returned by ServerConfig when TLS is switched off
var ErrDisabled = errors.New("TLS is not enabled")

// Config holds HTTPS settings
type Config struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	Port         string
	RedirectHTTP bool // serve a plain HTTP listener that redirects to HTTPS
	MinVersion   uint16
}

// NewConfigFromEnv creates TLS config from environment variables
func NewConfigFromEnv() *Config {
	return &Config{
		Enabled:      getEnvBool("TLS_ENABLED", false),
		CertFile:     getEnv("TLS_CERT_FILE", "./certs/server.crt"),
		KeyFile:      getEnv("TLS_KEY_FILE", "./certs/server.key"),
		Port:         getEnv("TLS_PORT", "8443"),
		RedirectHTTP: getEnvBool("TLS_REDIRECT_HTTP", true),
		MinVersion:   parseTLSVersion(getEnv("TLS_MIN_VERSION", "1.2")),
	}
}

// ServerConfig loads the key pair and returns the *tls.Config for the server
func (c *Config) ServerConfig() (*tls.Config, error) {
	if !c.Enabled {
		return nil, ErrDisabled
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate %s: %w", c.CertFile, err)
	}

	logging.Logger.Infof("TLS configured: cert=%s, minVersion=%s", c.CertFile, versionString(c.MinVersion))

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   c.MinVersion,
		// Only consulted for TLS 1.2; 1.3 suites are not configurable
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		},
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}, nil
}

// parseTLSVersion accepts "1.2" or "1.3"; anything else falls back to 1.2
func parseTLSVersion(version string) uint16 {
	switch version {
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	}
	logging.Logger.Warnf("Unsupported TLS version '%s', using TLS 1.2", version)
	return tls.VersionTLS12
}

func versionString(version uint16) string {
	switch version {
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	}
	return fmt.Sprintf("unknown (0x%04x)", version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
