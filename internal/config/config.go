// Package config provides configuration management for the itemshelf
// server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultAuthMode        = "none"
	DefaultTLSClientAuth   = "none"
	DefaultStoreBackend    = "memory"
	DefaultSQLitePath      = "itemshelf.db"
	DefaultBackendURL      = "http://localhost:8080"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvAuthMode        = "APP_AUTH_MODE"
	EnvTLSEnabled      = "APP_TLS_ENABLED"
	EnvTLSCertPath     = "APP_TLS_CERT_PATH"
	EnvTLSKeyPath      = "APP_TLS_KEY_PATH"
	EnvTLSCAPath       = "APP_TLS_CA_PATH"
	EnvTLSClientAuth   = "APP_TLS_CLIENT_AUTH"
	EnvBasicAuthUsers  = "APP_BASIC_AUTH_USERS"
	EnvAPIKeys         = "APP_API_KEYS" //nolint:gosec // env var name, not a credential
	EnvStoreBackend    = "APP_STORE_BACKEND"
	EnvSQLitePath      = "APP_SQLITE_PATH"
	EnvBackendURL      = "APP_BACKEND_URL"
	EnvAPIKey          = "APP_API_KEY"       //nolint:gosec // env var name, not a credential
	EnvDiscogsToken    = "APP_DISCOGS_TOKEN" //nolint:gosec // env var name, not a credential
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Storage backend: memory, sqlite.
	StoreBackend string
	SQLitePath   string

	// Authentication mode: none, mtls, basic, apikey, multi.
	AuthMode string

	// TLS settings.
	TLSEnabled    bool
	TLSCertPath   string
	TLSKeyPath    string
	TLSCAPath     string
	TLSClientAuth string

	// Basic auth settings (format: "user1:bcrypt_hash,user2:bcrypt_hash").
	BasicAuthUsers string

	// API key settings (format: "key1:name1,key2:name2").
	APIKeys string

	// Client settings (CLI side).
	BackendURL   string
	APIKey       string
	DiscogsToken string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidStoreBackend    = errors.New("store backend must be one of: memory, sqlite")
	ErrInvalidSQLitePath      = errors.New("sqlite path must be set when store backend is sqlite")
	ErrInvalidAuthMode        = errors.New(
		"auth mode must be one of: none, mtls, basic, apikey, multi",
	)
	ErrInvalidTLSClientAuth = errors.New(
		"TLS client auth must be one of: none, request, require",
	)
	ErrInvalidTLSCertRequired = errors.New(
		"TLS cert path and key path must be set when TLS is enabled",
	)
	ErrInvalidTLSCARequired = errors.New(
		"TLS CA path must be set when TLS client auth is require",
	)
	ErrInvalidBasicAuthConfig = errors.New(
		"basic auth users must be set when auth mode is basic",
	)
	ErrInvalidAPIKeyConfig = errors.New(
		"API keys must be set when auth mode is apikey",
	)
	ErrInvalidMultiAuthConfig = errors.New(
		"at least one auth config must be provided when auth mode is multi",
	)
)

// Load reads configuration from environment variables with defaults.
// Environment variables have priority over default values.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		StoreBackend:    DefaultStoreBackend,
		SQLitePath:      DefaultSQLitePath,
		AuthMode:        DefaultAuthMode,
		TLSClientAuth:   DefaultTLSClientAuth,
		BackendURL:      DefaultBackendURL,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	c.loadStoreEnv()

	if err := c.loadAuthEnv(); err != nil {
		return err
	}

	c.loadClientEnv()

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	return nil
}

// loadStoreEnv loads storage-related environment variables.
func (c *Config) loadStoreEnv() {
	if val := os.Getenv(EnvStoreBackend); val != "" {
		c.StoreBackend = val
	}

	if val := os.Getenv(EnvSQLitePath); val != "" {
		c.SQLitePath = val
	}
}

// loadAuthEnv loads authentication and security environment variables.
func (c *Config) loadAuthEnv() error {
	if val := os.Getenv(EnvAuthMode); val != "" {
		c.AuthMode = val
	}

	if err := c.loadTLSEnv(); err != nil {
		return err
	}

	if val := os.Getenv(EnvBasicAuthUsers); val != "" {
		c.BasicAuthUsers = val
	}

	if val := os.Getenv(EnvAPIKeys); val != "" {
		c.APIKeys = val
	}

	return nil
}

// loadTLSEnv loads TLS-related environment variables.
func (c *Config) loadTLSEnv() error {
	if val := os.Getenv(EnvTLSEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvTLSEnabled, err)
		}
		c.TLSEnabled = enabled
	}

	if val := os.Getenv(EnvTLSCertPath); val != "" {
		c.TLSCertPath = val
	}

	if val := os.Getenv(EnvTLSKeyPath); val != "" {
		c.TLSKeyPath = val
	}

	if val := os.Getenv(EnvTLSCAPath); val != "" {
		c.TLSCAPath = val
	}

	if val := os.Getenv(EnvTLSClientAuth); val != "" {
		c.TLSClientAuth = val
	}

	return nil
}

// loadClientEnv loads CLI/client environment variables.
func (c *Config) loadClientEnv() {
	if val := os.Getenv(EnvBackendURL); val != "" {
		c.BackendURL = val
	}

	if val := os.Getenv(EnvAPIKey); val != "" {
		c.APIKey = val
	}

	if val := os.Getenv(EnvDiscogsToken); val != "" {
		c.DiscogsToken = val
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// validateStore validates storage configuration.
func (c *Config) validateStore() error {
	switch c.StoreBackend {
	case "memory":
		return nil
	case "sqlite":
		if c.SQLitePath == "" {
			return ErrInvalidSQLitePath
		}
		return nil
	default:
		return ErrInvalidStoreBackend
	}
}

// validateAuth validates authentication and security configuration.
func (c *Config) validateAuth() error {
	authMode := c.authModeOrDefault()

	if err := c.validateAuthMode(authMode); err != nil {
		return err
	}

	if err := c.validateTLS(); err != nil {
		return err
	}

	return c.validateAuthModeRequirements(authMode)
}

// authModeOrDefault returns the auth mode, defaulting to "none" if empty.
func (c *Config) authModeOrDefault() string {
	if c.AuthMode == "" {
		return DefaultAuthMode
	}
	return c.AuthMode
}

// tlsClientAuthOrDefault returns the TLS client auth, defaulting to "none" if empty.
func (c *Config) tlsClientAuthOrDefault() string {
	if c.TLSClientAuth == "" {
		return DefaultTLSClientAuth
	}
	return c.TLSClientAuth
}

// validateAuthMode checks that the auth mode is a valid value.
func (c *Config) validateAuthMode(authMode string) error {
	validAuthModes := map[string]bool{
		"none":   true,
		"mtls":   true,
		"basic":  true,
		"apikey": true,
		"multi":  true,
	}
	if !validAuthModes[authMode] {
		return ErrInvalidAuthMode
	}

	return nil
}

// validateTLS validates TLS-related configuration.
func (c *Config) validateTLS() error {
	clientAuth := c.tlsClientAuthOrDefault()

	validClientAuth := map[string]bool{
		"none":    true,
		"request": true,
		"require": true,
	}
	if !validClientAuth[clientAuth] {
		return ErrInvalidTLSClientAuth
	}

	if c.TLSEnabled && (c.TLSCertPath == "" || c.TLSKeyPath == "") {
		return ErrInvalidTLSCertRequired
	}

	if clientAuth == "require" && c.TLSCAPath == "" {
		return ErrInvalidTLSCARequired
	}

	return nil
}

// validateAuthModeRequirements validates auth-mode-specific requirements.
func (c *Config) validateAuthModeRequirements(authMode string) error {
	switch authMode {
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case "apikey":
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	case "multi":
		if !c.hasAnyAuthConfig() {
			return ErrInvalidMultiAuthConfig
		}
	}

	return nil
}

// hasAnyAuthConfig checks if at least one auth-related configuration is provided.
func (c *Config) hasAnyAuthConfig() bool {
	return c.BasicAuthUsers != "" ||
		c.APIKeys != "" ||
		c.TLSEnabled
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
