package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/nightjar-app/nightjar-go/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText       LogFormat = "text"
	LogFormatJSON       LogFormat = "json"
	LogFormatOTLP       LogFormat = "otlp"
	LogFormatOTLPStdout LogFormat = "otlp-stdout"
)

// TokenStorageType represents the storage backends supported for tokens.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat   = LogFormatText
	DefaultConfigBaseURL     = "https://api.nightjar.app/v1"
	DefaultConfigBatchLimit  = 4
	DefaultConfigAuthStorage = TokenStorageTypeFile
)

// Keyring service identifiers for the two stored credentials.
const (
	keyringSessionService = "nightjar-session"
	keyringRefreshService = "nightjar-refresh"
)

// APIConfig holds backend API configuration.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`

	// BatchLimit bounds concurrent requests in batched fetches.
	BatchLimit int `json:"batch_limit" validate:"gte=1,lte=32"`
}

// AuthConfig describes where tokens are stored.
type AuthConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=file env keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // file storage: path to session token file
	EnvKey      string `json:"env_key,omitempty"`      // env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // keyring storage: user identifier
}

// NewSessionStore creates the backend holding the session token.
func (a *AuthConfig) NewSessionStore() (tokenstore.TokenStore, error) {
	switch a.Storage {
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(a.File)
	case TokenStorageTypeEnv:
		return tokenstore.NewEnvStore(a.EnvKey)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(keyringSessionService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// NewRefreshStore creates the backend holding the refresh token. Env
// storage is read-only and carries no refresh token, so it reports
// unsupported; the caller then runs without session refresh.
func (a *AuthConfig) NewRefreshStore() (tokenstore.TokenStore, error) {
	switch a.Storage {
	case TokenStorageTypeFile:
		dir := filepath.Dir(a.File)
		return tokenstore.NewFileStore(filepath.Join(dir, "refresh"))
	case TokenStorageTypeEnv:
		return nil, errors.New("env storage cannot hold a refresh token")
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(keyringRefreshService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// PrefsConfig holds preference storage configuration.
type PrefsConfig struct {
	File string `json:"file" validate:"required"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level  `json:"log_level"`
	LogFormat LogFormat   `json:"log_format" validate:"oneof=text json otlp otlp-stdout"`
	API       APIConfig   `json:"api"`
	Auth      AuthConfig  `json:"auth"`
	Prefs     PrefsConfig `json:"prefs"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigBaseURL
	}
	if c.API.BatchLimit == 0 {
		c.API.BatchLimit = DefaultConfigBatchLimit
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "nightjar", "session")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	if c.Prefs.File == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("prefs.file required (auto-detect failed: %w)", err)
		}
		c.Prefs.File = filepath.Join(configDir, "nightjar", "prefs.json")
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeEnv:
		if c.Auth.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}
