package tokenstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
)

// EnvBackend provides read-only access to a token document stored in an
// environment variable. Suitable for externally injected credentials but not
// for the OAuth2 flows (those require writable storage).
type EnvBackend struct {
	envKey string
}

// Compile-time check to ensure EnvBackend implements Backend
var _ Backend = (*EnvBackend)(nil)

// NewEnvBackend creates an EnvBackend for the given environment variable.
// Returns error if the variable name is empty or not set in the environment.
func NewEnvBackend(envKey string) (*EnvBackend, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(envKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set", envKey)
	}

	return &EnvBackend{
		envKey: envKey,
	}, nil
}

// Read returns the document from the environment variable.
func (e *EnvBackend) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := os.Getenv(e.envKey)
	if data == "" {
		return nil, fmt.Errorf("environment variable %s: %w", e.envKey, fs.ErrNotExist)
	}
	return []byte(data), nil
}

// Write is not supported for environment variables (they are read-only).
func (e *EnvBackend) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable storage is read-only")
}
