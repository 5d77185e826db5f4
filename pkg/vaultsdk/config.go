package vaultsdk

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Defaults applied by NewClient when the corresponding Config field is zero.
const (
	DefaultOpenTimeout   = 5 * time.Second
	DefaultReadTimeout   = 30 * time.Second
	DefaultRetryInterval = 500 * time.Millisecond
)

// Config describes how a Client connects and authenticates. It is consumed
// by NewClient and never read again: changing a Config after construction
// has no effect on existing clients.
type Config struct {
	// Address is the base URL of the service, e.g. "https://vault.internal:8200".
	// Required.
	Address string

	// Token is the bearer credential sent on every request. Optional:
	// login operations are valid without one.
	Token string

	// TLS carries trust material for HTTPS addresses. Nil means system
	// roots with full verification.
	TLS *TLSConfig

	// OpenTimeout bounds connection establishment (dial + TLS handshake).
	OpenTimeout time.Duration

	// ReadTimeout bounds a single request/response attempt. Exceeding it
	// counts as a retryable network failure.
	ReadTimeout time.Duration

	// MaxRetries is the number of additional attempts after the first on
	// retryable failures. Zero disables retries.
	MaxRetries int

	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration

	// Limiter, when set, gates every attempt. Useful for keeping bulk
	// secret sweeps inside the service's request quota.
	Limiter *rate.Limiter

	// Logger receives per-request debug records. Nil disables logging.
	// Token values are never logged regardless of level.
	Logger *slog.Logger

	// HTTPClient overrides the built transport entirely. Intended for
	// tests; when set, TLS and OpenTimeout are ignored.
	HTTPClient *http.Client
}

// TLSConfig carries the trust options for HTTPS connections.
type TLSConfig struct {
	// CACertPEM is PEM-encoded trust material appended to the pool.
	CACertPEM []byte

	// CACertFile is a path to PEM trust material, loaded at client
	// construction. Construction fails if the file is unreadable.
	CACertFile string

	// SkipVerify disables certificate verification. Test use only.
	SkipVerify bool
}

// Validate checks that the configuration can produce a working client.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("vaultsdk: config address is required")
	}

	u, err := url.Parse(c.Address)
	if err != nil {
		return fmt.Errorf("vaultsdk: config address %q is not a URL: %w", c.Address, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("vaultsdk: config address %q must be http or https", c.Address)
	}
	if u.Host == "" {
		return fmt.Errorf("vaultsdk: config address %q has no host", c.Address)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("vaultsdk: max retries must be >= 0, got %d", c.MaxRetries)
	}

	return nil
}

// withDefaults fills zero-valued timing fields. Called once by NewClient;
// the returned copy is what the client keeps.
func (c Config) withDefaults() Config {
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = DefaultOpenTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	c.Address = strings.TrimSuffix(c.Address, "/")
	return c
}

// ConfigFromEnv builds a Config from the conventional environment
// variables:
//
//	VAULT_ADDR                base address (required for the client to work)
//	VAULT_TOKEN               bearer credential
//	VAULT_OPEN_TIMEOUT        dial timeout, duration string or seconds
//	VAULT_READ_TIMEOUT        per-attempt timeout, duration string or seconds
//	VAULT_MAX_RETRIES         retry budget
//	VAULT_RETRY_INTERVAL_MS   pause between attempts, milliseconds
//	VAULT_SSL_CERT            path to PEM CA material
//	VAULT_SSL_VERIFY          "false" or "0" disables certificate checks
//
// Unset variables leave the corresponding field zero so NewClient applies
// its defaults.
func ConfigFromEnv() Config {
	cfg := Config{
		Address:       os.Getenv("VAULT_ADDR"),
		Token:         os.Getenv("VAULT_TOKEN"),
		OpenTimeout:   getEnvDuration("VAULT_OPEN_TIMEOUT"),
		ReadTimeout:   getEnvDuration("VAULT_READ_TIMEOUT"),
		MaxRetries:    getEnvInt("VAULT_MAX_RETRIES"),
		RetryInterval: time.Duration(getEnvInt("VAULT_RETRY_INTERVAL_MS")) * time.Millisecond,
	}

	sslCert := os.Getenv("VAULT_SSL_CERT")
	sslVerify := strings.ToLower(os.Getenv("VAULT_SSL_VERIFY"))
	if sslCert != "" || sslVerify == "false" || sslVerify == "0" {
		cfg.TLS = &TLSConfig{
			CACertFile: sslCert,
			SkipVerify: sslVerify == "false" || sslVerify == "0",
		}
	}

	return cfg
}

// buildHTTPClient assembles the single-attempt transport. Retries compose
// above this in the client, so nothing here re-issues requests.
func buildHTTPClient(cfg Config) (*http.Client, error) {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient, nil
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.TLS != nil {
		pem := cfg.TLS.CACertPEM
		if cfg.TLS.CACertFile != "" {
			fileData, err := os.ReadFile(cfg.TLS.CACertFile)
			if err != nil {
				return nil, fmt.Errorf("vaultsdk: reading CA cert file: %w", err)
			}
			pem = append(pem, fileData...)
		}
		if len(pem) > 0 {
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("vaultsdk: CA cert material contains no certificates")
			}
			tlsConfig.RootCAs = pool
		}
		tlsConfig.InsecureSkipVerify = cfg.TLS.SkipVerify
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	transport.TLSHandshakeTimeout = cfg.OpenTimeout
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.OpenTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.ReadTimeout,
	}, nil
}

func getEnvInt(key string) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}

	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return 0
}

func getEnvDuration(key string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}

	// Duration string first, e.g. "30s"
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	// Bare integer seconds for compatibility with other tooling
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return 0
}
