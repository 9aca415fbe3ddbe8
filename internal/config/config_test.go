package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.StoreBackend != DefaultStoreBackend {
		t.Errorf("StoreBackend = %s, want %s", cfg.StoreBackend, DefaultStoreBackend)
	}
	if cfg.SQLitePath != DefaultSQLitePath {
		t.Errorf("SQLitePath = %s, want %s", cfg.SQLitePath, DefaultSQLitePath)
	}
	if cfg.AuthMode != DefaultAuthMode {
		t.Errorf("AuthMode = %s, want %s", cfg.AuthMode, DefaultAuthMode)
	}
	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("BackendURL = %s, want %s", cfg.BackendURL, DefaultBackendURL)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name: "custom server port",
			envVars: map[string]string{
				EnvServerPort: "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 9090 {
					t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
				}
			},
		},
		{
			name: "custom log level",
			envVars: map[string]string{
				EnvLogLevel: "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "custom shutdown timeout",
			envVars: map[string]string{
				EnvShutdownTimeout: "60s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 60*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 60s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name: "metrics disabled",
			envVars: map[string]string{
				EnvMetricsEnabled: "false",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
			},
		},
		{
			name: "sqlite backend",
			envVars: map[string]string{
				EnvStoreBackend: "sqlite",
				EnvSQLitePath:   "/tmp/items.db",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.StoreBackend != "sqlite" {
					t.Errorf("StoreBackend = %s, want sqlite", cfg.StoreBackend)
				}
				if cfg.SQLitePath != "/tmp/items.db" {
					t.Errorf("SQLitePath = %s, want /tmp/items.db", cfg.SQLitePath)
				}
			},
		},
		{
			name: "client settings",
			envVars: map[string]string{
				EnvBackendURL:   "http://backend:8080",
				EnvAPIKey:       "secret-key",
				EnvDiscogsToken: "discogs-token",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.BackendURL != "http://backend:8080" {
					t.Errorf("BackendURL = %s, want http://backend:8080", cfg.BackendURL)
				}
				if cfg.APIKey != "secret-key" {
					t.Errorf("APIKey = %s, want secret-key", cfg.APIKey)
				}
				if cfg.DiscogsToken != "discogs-token" {
					t.Errorf("DiscogsToken = %s, want discogs-token", cfg.DiscogsToken)
				}
			},
		},
		{
			name: "basic auth mode",
			envVars: map[string]string{
				EnvAuthMode:       "basic",
				EnvBasicAuthUsers: "alice:$2a$10$hash",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.AuthMode != "basic" {
					t.Errorf("AuthMode = %s, want basic", cfg.AuthMode)
				}
				if cfg.BasicAuthUsers != "alice:$2a$10$hash" {
					t.Errorf("BasicAuthUsers = %s, want alice:$2a$10$hash", cfg.BasicAuthUsers)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name:    "invalid server port number",
			envVars: map[string]string{EnvServerPort: "99999"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "zero server port",
			envVars: map[string]string{EnvServerPort: "0"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{EnvLogLevel: "verbose"},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "negative shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "-5s"},
			wantErr: ErrInvalidShutdownTimeout,
		},
		{
			name:    "unknown store backend",
			envVars: map[string]string{EnvStoreBackend: "postgres"},
			wantErr: ErrInvalidStoreBackend,
		},
		{
			name:    "unknown auth mode",
			envVars: map[string]string{EnvAuthMode: "oauth"},
			wantErr: ErrInvalidAuthMode,
		},
		{
			name:    "basic auth mode without users",
			envVars: map[string]string{EnvAuthMode: "basic"},
			wantErr: ErrInvalidBasicAuthConfig,
		},
		{
			name:    "apikey auth mode without keys",
			envVars: map[string]string{EnvAuthMode: "apikey"},
			wantErr: ErrInvalidAPIKeyConfig,
		},
		{
			name:    "multi auth mode without any config",
			envVars: map[string]string{EnvAuthMode: "multi"},
			wantErr: ErrInvalidMultiAuthConfig,
		},
		{
			name:    "TLS enabled without cert",
			envVars: map[string]string{EnvTLSEnabled: "true"},
			wantErr: ErrInvalidTLSCertRequired,
		},
		{
			name: "TLS client auth require without CA",
			envVars: map[string]string{
				EnvTLSEnabled:    "true",
				EnvTLSCertPath:   "/tls/cert.pem",
				EnvTLSKeyPath:    "/tls/key.pem",
				EnvTLSClientAuth: "require",
			},
			wantErr: ErrInvalidTLSCARequired,
		},
		{
			name:    "invalid TLS client auth",
			envVars: map[string]string{EnvTLSClientAuth: "optional"},
			wantErr: ErrInvalidTLSClientAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			_, err := Load()

			// Assert
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_UnparsableValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "non-numeric server port",
			envVars: map[string]string{EnvServerPort: "eighty"},
		},
		{
			name:    "malformed shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "soon"},
		},
		{
			name:    "non-boolean metrics flag",
			envVars: map[string]string{EnvMetricsEnabled: "maybe"},
		},
		{
			name:    "non-boolean TLS flag",
			envVars: map[string]string{EnvTLSEnabled: "maybe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			_, err := Load()

			// Assert
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	// Arrange
	cfg := &Config{ServerPort: 8080}

	// Act
	addr := cfg.Address()

	// Assert
	if addr != ":8080" {
		t.Errorf("Address() = %s, want :8080", addr)
	}
}

func TestConfig_Validate_MultiAuthWithConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "multi with basic users",
			cfg:  Config{AuthMode: "multi", BasicAuthUsers: "alice:hash"},
		},
		{
			name: "multi with api keys",
			cfg:  Config{AuthMode: "multi", APIKeys: "key1:name1"},
		},
		{
			name: "multi with TLS",
			cfg: Config{
				AuthMode:    "multi",
				TLSEnabled:  true,
				TLSCertPath: "/tls/cert.pem",
				TLSKeyPath:  "/tls/key.pem",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := tt.cfg
			cfg.ServerPort = 8080
			cfg.LogLevel = "info"
			cfg.ShutdownTimeout = time.Second
			cfg.StoreBackend = "memory"

			// Act
			err := cfg.Validate()

			// Assert
			if err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}
		})
	}
}

// clearEnvVars unsets every configuration variable for the duration of
// the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvServerPort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvAuthMode,
		EnvTLSEnabled,
		EnvTLSCertPath,
		EnvTLSKeyPath,
		EnvTLSCAPath,
		EnvTLSClientAuth,
		EnvBasicAuthUsers,
		EnvAPIKeys,
		EnvStoreBackend,
		EnvSQLitePath,
		EnvBackendURL,
		EnvAPIKey,
		EnvDiscogsToken,
	}
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}
