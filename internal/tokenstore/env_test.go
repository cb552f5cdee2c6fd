package tokenstore

import (
	"errors"
	"io/fs"
	"testing"
)

func TestEnvBackendRead(t *testing.T) {
	t.Setenv("NINJAMCP_TEST_TOKENS", `{"client":{"valid":true}}`)

	backend, err := NewEnvBackend("NINJAMCP_TEST_TOKENS")
	if err != nil {
		t.Fatalf("NewEnvBackend failed: %v", err)
	}

	got, err := backend.Read(t.Context())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != `{"client":{"valid":true}}` {
		t.Errorf("Read = %q", got)
	}
}

func TestEnvBackendUnsetVariable(t *testing.T) {
	if _, err := NewEnvBackend("NINJAMCP_TEST_DOES_NOT_EXIST"); err == nil {
		t.Error("expected error for unset environment variable")
	}
}

func TestEnvBackendEmptyValue(t *testing.T) {
	t.Setenv("NINJAMCP_TEST_TOKENS", "")

	backend, err := NewEnvBackend("NINJAMCP_TEST_TOKENS")
	if err != nil {
		t.Fatalf("NewEnvBackend failed: %v", err)
	}

	_, err = backend.Read(t.Context())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read of empty variable should wrap fs.ErrNotExist, got: %v", err)
	}
}

func TestEnvBackendWriteRejected(t *testing.T) {
	t.Setenv("NINJAMCP_TEST_TOKENS", "{}")

	backend, err := NewEnvBackend("NINJAMCP_TEST_TOKENS")
	if err != nil {
		t.Fatalf("NewEnvBackend failed: %v", err)
	}

	if err := backend.Write(t.Context(), []byte("{}")); err == nil {
		t.Error("Write should be rejected for read-only storage")
	}
}
