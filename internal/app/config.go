package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/goetzcj/ninjamcp/internal/auth"
	"github.com/goetzcj/ninjamcp/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TokenStorageType represents the storage backends supported for the
// persisted token document.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat      = LogFormatText
	DefaultConfigBaseURL        = "https://app.ninjarmm.com"
	DefaultConfigAuthMode       = auth.ModeHybrid
	DefaultConfigScopes         = "monitoring management control"
	DefaultConfigRedirectPort   = auth.DefaultRedirectPort
	DefaultConfigAuthTimeout    = auth.DefaultAuthorizationTimeout
	DefaultConfigAuthStorage    = TokenStorageTypeFile
	DefaultConfigKeyringService = "ninjamcp-tokens"
)

// NinjaConfig holds the NinjaRMM API identity and endpoint.
//
// ClientID and ClientSecret may both be empty: the manager then runs in
// injection-only mode and never attempts an OAuth2 flow.
type NinjaConfig struct {
	BaseURL      string `json:"base_url" validate:"required,url"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// AuthConfig describes the credential policy and token persistence.
type AuthConfig struct {
	// Mode restricts which OAuth2 flows may run.
	Mode auth.Mode `json:"mode" validate:"oneof=client user hybrid"`

	// Scope strings requested by the two flows.
	ClientScopes string `json:"client_scopes"`
	UserScopes   string `json:"user_scopes"`

	// RedirectPort is where the interactive flow's callback listener binds.
	RedirectPort uint16 `json:"redirect_port"`

	// AuthorizationTimeout bounds the wait for the browser redirect.
	AuthorizationTimeout time.Duration `json:"authorization_timeout"`

	// Storage configuration - where the token document lives
	Storage TokenStorageType `json:"storage" validate:"required,oneof=file env keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to token file
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewTokenBackend creates a persistence backend from the authentication
// configuration.
func (a *AuthConfig) NewTokenBackend() (tokenstore.Backend, error) {
	switch a.Storage {
	case TokenStorageTypeFile:
		return tokenstore.NewFileBackend(a.File)
	case TokenStorageTypeEnv:
		return tokenstore.NewEnvBackend(a.EnvKey)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringBackend(DefaultConfigKeyringService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level  `json:"log_level"`
	LogFormat LogFormat   `json:"log_format" validate:"oneof=text json"`
	Ninja     NinjaConfig `json:"ninja"`
	Auth      AuthConfig  `json:"auth"`
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
	if c.Ninja.BaseURL == "" {
		c.Ninja.BaseURL = DefaultConfigBaseURL
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = DefaultConfigAuthMode
	}
	if c.Auth.ClientScopes == "" {
		c.Auth.ClientScopes = DefaultConfigScopes
	}
	if c.Auth.UserScopes == "" {
		c.Auth.UserScopes = DefaultConfigScopes
	}
	if c.Auth.RedirectPort == 0 {
		c.Auth.RedirectPort = DefaultConfigRedirectPort
	}
	if c.Auth.AuthorizationTimeout == 0 {
		c.Auth.AuthorizationTimeout = DefaultConfigAuthTimeout
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
			c.Auth.File = filepath.Join(configDir, "ninjamcp", "tokens.json")
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

	return nil
}

// InjectionOnly reports whether no machine credentials are configured, in
// which case the manager may never run an OAuth2 flow.
func (c *Config) InjectionOnly() bool {
	return c.Ninja.ClientID == "" && c.Ninja.ClientSecret == ""
}

// Validate validates the configuration using struct tags and cross-field
// rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// Credentials come in pairs
	if (c.Ninja.ClientID == "") != (c.Ninja.ClientSecret == "") {
		return errors.New("ninja.client_id and ninja.client_secret must be set together")
	}

	// The OAuth2 flows persist tokens; env storage is read-only
	if !c.InjectionOnly() && c.Auth.Storage == TokenStorageTypeEnv {
		return errors.New("oauth flows require writable token storage, env is read-only")
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
