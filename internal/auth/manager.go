package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Environment variables consumed once at initialization to fold externally
// managed tokens into the store (credential-manager integration). Expiry
// variables carry the remaining lifetime in seconds.
const (
	EnvClientAccessToken  = "NINJAMCP_CLIENT_ACCESS_TOKEN"
	EnvClientRefreshToken = "NINJAMCP_CLIENT_REFRESH_TOKEN"
	EnvClientTokenExpiry  = "NINJAMCP_CLIENT_TOKEN_EXPIRY"
	EnvUserAccessToken    = "NINJAMCP_USER_ACCESS_TOKEN"
	EnvUserRefreshToken   = "NINJAMCP_USER_REFRESH_TOKEN"
	EnvUserTokenExpiry    = "NINJAMCP_USER_TOKEN_EXPIRY"
)

// defaultInjectedExpiry is assumed for injected tokens that do not declare a
// lifetime.
const defaultInjectedExpiry int64 = 3600

// InjectedToken is a ready-made token supplied by an external credential
// manager, bypassing both OAuth2 flows.
type InjectedToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ManagerConfig carries the policy knobs for a Manager.
type ManagerConfig struct {
	// Mode restricts which flows may run. ModeHybrid routes per operation.
	Mode Mode

	// ClientScopes and UserScopes are the scope strings requested by the
	// respective flows, and the defaults applied to injected tokens.
	ClientScopes string
	UserScopes   string

	// LookupEnv is consulted for the injection variables at initialization.
	// Defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Manager orchestrates the token store, the OAuth2 exchange, and the
// credential selector behind a single operation: produce a usable bearer
// token for a named API operation.
//
// A nil exchange puts the manager in injection-only mode: no machine
// credentials are configured, only externally injected tokens can populate
// the store, and no network flow is ever attempted.
type Manager struct {
	cfg      ManagerConfig
	store    *Store
	exchange *Exchange

	// Serializes Authenticate end to end. Two callers observing the same
	// expired token would otherwise both trigger a flow; for the interactive
	// flow that means racing for the callback port.
	mu sync.Mutex
}

// NewManager creates a Manager over the given store. Pass a nil exchange for
// injection-only mode.
func NewManager(store *Store, exchange *Exchange, cfg ManagerConfig) *Manager {
	if cfg.Mode == "" {
		cfg.Mode = ModeHybrid
	}
	if cfg.LookupEnv == nil {
		cfg.LookupEnv = os.LookupEnv
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		exchange: exchange,
	}
}

// Initialize loads persisted tokens and folds in any tokens injected through
// the environment. Must be called before Authenticate.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.store.Load(ctx); err != nil {
		return err
	}

	m.injectFromEnv(ctx, SlotClient, EnvClientAccessToken, EnvClientRefreshToken, EnvClientTokenExpiry)
	m.injectFromEnv(ctx, SlotUser, EnvUserAccessToken, EnvUserRefreshToken, EnvUserTokenExpiry)

	if m.exchange == nil {
		slog.InfoContext(ctx, "authentication manager in injection-only mode")
	}
	return nil
}

// injectFromEnv applies one slot's injection variables, if present.
func (m *Manager) injectFromEnv(ctx context.Context, slot Slot, accessKey, refreshKey, expiryKey string) {
	access, ok := m.cfg.LookupEnv(accessKey)
	if !ok || access == "" {
		return
	}

	refresh, _ := m.cfg.LookupEnv(refreshKey)

	var expiresIn int64
	if raw, ok := m.cfg.LookupEnv(expiryKey); ok {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			expiresIn = parsed
		} else {
			slog.WarnContext(ctx, "ignoring malformed token expiry variable", "variable", expiryKey, "value", raw)
		}
	}

	m.inject(ctx, slot, InjectedToken{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	})
	slog.InfoContext(ctx, "token injected from environment", "slot", slot)
}

// Status recomputes the authentication status from the store.
func (m *Manager) Status() Status {
	tokens := m.store.Snapshot()
	return Status{
		Mode:         m.cfg.Mode,
		ClientScopes: m.cfg.ClientScopes,
		UserScopes:   m.cfg.UserScopes,
		Tokens:       tokens,
		Capabilities: computeCapabilities(tokens, time.Now()),
	}
}

// Authenticate returns a bearer token usable for the named operation.
//
// The fast path, a cached usable token, performs no network I/O and is
// expected to dominate steady-state traffic. On a cache miss the manager
// tries a refresh (recoverable on failure), then runs the flow the
// classifier picks. In injection-only mode no flow is ever attempted.
func (m *Manager) Authenticate(ctx context.Context, operation string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if rec, ok := m.Status().BestToken(operation, now); ok {
		return rec.AccessToken, nil
	}

	// Expired user token with a refresh token: try the cheap path first.
	// Refresh failure is recoverable, it just forces a fresh flow.
	if m.exchange != nil {
		if user := m.store.Get(SlotUser); user.RefreshToken != "" && !user.Usable(now) {
			if err := m.refreshUser(ctx); err != nil {
				slog.WarnContext(ctx, "user token refresh failed", "error", err)
			} else if rec, ok := m.Status().BestToken(operation, time.Now()); ok {
				return rec.AccessToken, nil
			}
		}
	}

	if m.exchange == nil {
		return "", fmt.Errorf("%w: cannot run OAuth2 flows, inject tokens externally", ErrNoCredentials)
	}

	if err := m.runFlow(ctx, operation); err != nil {
		return "", err
	}

	rec, ok := m.Status().BestToken(operation, time.Now())
	if !ok {
		return "", ErrAuthenticationFailed
	}
	return rec.AccessToken, nil
}

// runFlow picks and runs the grant flow for the operation, honoring the
// configured mode. Hybrid mode routes through the same classifier the
// selector uses.
func (m *Manager) runFlow(ctx context.Context, operation string) error {
	useUserFlow := false
	switch m.cfg.Mode {
	case ModeClient:
		useUserFlow = false
	case ModeUser:
		useUserFlow = true
	default:
		useUserFlow = flowSlot(operation) == SlotUser
	}

	if useUserFlow {
		return m.authorizeUser(ctx)
	}
	return m.authenticateClient(ctx)
}

// authenticateClient runs the client-credentials flow and persists the
// result.
func (m *Manager) authenticateClient(ctx context.Context) error {
	slog.InfoContext(ctx, "authenticating with client credentials")

	tok, err := m.exchange.ClientCredentials(ctx, m.cfg.ClientScopes)
	if err != nil {
		return fmt.Errorf("client credentials authentication: %w", err)
	}

	m.store.Set(ctx, SlotClient, tok.AccessToken, tokenLifetime(tok), "", tokenScope(tok))
	return nil
}

// authorizeUser runs the interactive authorization flow and persists the
// result.
func (m *Manager) authorizeUser(ctx context.Context) error {
	slog.InfoContext(ctx, "starting user authorization flow")

	tok, err := m.exchange.UserAuthorization(ctx, m.cfg.UserScopes)
	if err != nil {
		return fmt.Errorf("user authorization: %w", err)
	}

	m.store.Set(ctx, SlotUser, tok.AccessToken, tokenLifetime(tok), tok.RefreshToken, tokenScope(tok))
	return nil
}

// refreshUser exchanges the stored refresh token for a fresh user token.
// If the server rotates the refresh token the stored value is replaced,
// otherwise the prior one is kept.
func (m *Manager) refreshUser(ctx context.Context) error {
	prior := m.store.Get(SlotUser)

	slog.InfoContext(ctx, "refreshing user token")
	tok, err := m.exchange.Refresh(ctx, prior.RefreshToken)
	if err != nil {
		return err
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = prior.RefreshToken
	}

	m.store.Set(ctx, SlotUser, tok.AccessToken, tokenLifetime(tok), refresh, tokenScope(tok))
	return nil
}

// InjectClientToken writes an externally supplied token into the client slot,
// bypassing the flows.
func (m *Manager) InjectClientToken(ctx context.Context, tok InjectedToken) {
	m.inject(ctx, SlotClient, tok)
}

// InjectUserToken writes an externally supplied token into the user slot,
// bypassing the flows.
func (m *Manager) InjectUserToken(ctx context.Context, tok InjectedToken) {
	m.inject(ctx, SlotUser, tok)
}

// InjectTokens applies a batch of injected tokens keyed by slot. Unknown
// slots are logged and skipped.
func (m *Manager) InjectTokens(ctx context.Context, tokens map[Slot]InjectedToken) {
	for slot, tok := range tokens {
		switch slot {
		case SlotClient, SlotUser:
			m.inject(ctx, slot, tok)
		default:
			slog.WarnContext(ctx, "ignoring injected token for unknown slot", "slot", slot)
		}
	}
}

// inject writes through the same set contract as a successful flow, applying
// the injection defaults for lifetime and scope.
func (m *Manager) inject(ctx context.Context, slot Slot, tok InjectedToken) {
	expiresIn := tok.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultInjectedExpiry
	}

	scope := tok.Scope
	if scope == "" {
		if slot == SlotUser {
			scope = m.cfg.UserScopes
		} else {
			scope = m.cfg.ClientScopes
		}
	}

	m.store.Set(ctx, slot, tok.AccessToken, expiresIn, tok.RefreshToken, scope)
}

// ReauthorizeUser clears the user slot and unconditionally runs the
// interactive flow, forcing a fresh login regardless of current validity.
func (m *Manager) ReauthorizeUser(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exchange == nil {
		return fmt.Errorf("%w: cannot run user authorization flow", ErrNoCredentials)
	}

	m.store.Clear(ctx, SlotUser)
	return m.authorizeUser(ctx)
}

// ClearTokens clears one slot, or both for "all".
func (m *Manager) ClearTokens(ctx context.Context, which string) error {
	switch which {
	case "all":
		m.store.ClearAll(ctx)
	case string(SlotClient):
		m.store.Clear(ctx, SlotClient)
	case string(SlotUser):
		m.store.Clear(ctx, SlotUser)
	default:
		return fmt.Errorf("unknown token slot: %s", which)
	}
	return nil
}

// tokenLifetime extracts the server-declared lifetime in seconds.
func tokenLifetime(tok *oauth2.Token) int64 {
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn
	}
	if !tok.Expiry.IsZero() {
		if remaining := time.Until(tok.Expiry); remaining > 0 {
			return int64(remaining.Seconds())
		}
	}
	return defaultInjectedExpiry
}

// tokenScope extracts the granted scope, if the server reported one.
func tokenScope(tok *oauth2.Token) string {
	scope, _ := tok.Extra("scope").(string)
	return scope
}
