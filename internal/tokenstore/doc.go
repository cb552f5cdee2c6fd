// Package tokenstore provides persistent storage backends for the serialized
// OAuth2 token document.
//
// Three backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Env: Read-only environment variable access (requires external secret management)
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// The OAuth2 flows require writable storage (file or keyring); externally
// injected credentials can live in any backend including read-only env storage.
package tokenstore
