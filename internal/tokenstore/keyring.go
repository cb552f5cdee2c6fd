package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/zalando/go-keyring"
)

// KeyringBackend stores the token document in OS-native secure credential
// storage. Uses macOS Keychain, Windows Credential Manager, or Linux Secret
// Service.
type KeyringBackend struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringBackend implements Backend
var _ Backend = (*KeyringBackend)(nil)

// NewKeyringBackend creates a KeyringBackend using the given service and user
// identifiers.
func NewKeyringBackend(service, user string) (*KeyringBackend, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringBackend{
		service: service,
		user:    user,
	}, nil
}

// Read returns the document from the system keyring. A missing entry is
// reported as fs.ErrNotExist.
func (k *KeyringBackend) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("keyring entry %s/%s: %w", k.service, k.user, fs.ErrNotExist)
		}
		return nil, err
	}

	return []byte(data), nil
}

// Write persists the document to the system keyring, overwriting any existing
// value.
func (k *KeyringBackend) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, string(data))
}
