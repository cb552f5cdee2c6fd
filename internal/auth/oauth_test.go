package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestClientCredentials(t *testing.T) {
	var receivedForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		receivedForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"machine-tok","token_type":"Bearer","expires_in":3600,"scope":"monitoring management"}`))
	}))
	defer server.Close()

	exchange := NewExchange(server.URL, "client-id", "client-secret")

	tok, err := exchange.ClientCredentials(t.Context(), "monitoring management")
	if err != nil {
		t.Fatalf("ClientCredentials failed: %v", err)
	}

	if tok.AccessToken != "machine-tok" {
		t.Errorf("AccessToken = %q, want %q", tok.AccessToken, "machine-tok")
	}
	if tok.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", tok.ExpiresIn)
	}

	// Identity and grant travel in the POST body, not a basic-auth header.
	wantFields := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"scope":         "monitoring management",
	}
	for field, want := range wantFields {
		if got := receivedForm.Get(field); got != want {
			t.Errorf("form field %s = %q, want %q", field, got, want)
		}
	}
}

func TestClientCredentialsEmptyScope(t *testing.T) {
	var receivedForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		receivedForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"machine-tok","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	exchange := NewExchange(server.URL, "client-id", "client-secret")

	if _, err := exchange.ClientCredentials(t.Context(), ""); err != nil {
		t.Fatalf("ClientCredentials failed: %v", err)
	}

	// No configured scope means no scope field at all, not an empty one.
	if receivedForm.Has("scope") {
		t.Errorf("scope field sent for empty scope: %q", receivedForm.Get("scope"))
	}
}

func TestClientCredentialsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	exchange := NewExchange(server.URL, "bad-id", "bad-secret")

	_, err := exchange.ClientCredentials(t.Context(), "monitoring")
	if err == nil {
		t.Fatal("expected error for rejected credentials")
	}

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
	if protoErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", protoErr.StatusCode, http.StatusUnauthorized)
	}
	if protoErr.Body != `{"error":"invalid_client"}` {
		t.Errorf("Body = %q, want the error payload", protoErr.Body)
	}
}

func TestClientCredentialsTransportError(t *testing.T) {
	// A closed server yields a connection failure, not a protocol rejection.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	exchange := NewExchange(server.URL, "id", "secret")

	_, err := exchange.ClientCredentials(t.Context(), "monitoring")
	if err == nil {
		t.Fatal("expected transport error")
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		t.Errorf("transport failure must not be a *ProtocolError: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	var receivedForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		receivedForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-tok","token_type":"Bearer","expires_in":3600,"refresh_token":"rotated-refresh"}`))
	}))
	defer server.Close()

	exchange := NewExchange(server.URL, "client-id", "client-secret")

	tok, err := exchange.Refresh(t.Context(), "old-refresh")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := receivedForm.Get("grant_type"); got != "refresh_token" {
		t.Errorf("grant_type = %q, want refresh_token", got)
	}
	if got := receivedForm.Get("refresh_token"); got != "old-refresh" {
		t.Errorf("refresh_token = %q, want old-refresh", got)
	}

	if tok.AccessToken != "fresh-tok" {
		t.Errorf("AccessToken = %q, want fresh-tok", tok.AccessToken)
	}
	if tok.RefreshToken != "rotated-refresh" {
		t.Errorf("RefreshToken = %q, want rotated-refresh", tok.RefreshToken)
	}
}

func TestUserAuthorization(t *testing.T) {
	var tokenForm url.Values
	var authQuery url.Values

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		tokenForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"user-tok","token_type":"Bearer","expires_in":3600,"refresh_token":"user-refresh","scope":"management"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	// The fake browser follows the redirect back immediately.
	openBrowser := func(authURL string) error {
		parsed, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		authQuery = parsed.Query()

		callback := authQuery.Get("redirect_uri") + "?code=auth-code&state=" + url.QueryEscape(authQuery.Get("state"))
		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("callback status = %d, want 200", resp.StatusCode)
		}
		return nil
	}

	exchange := NewExchange(server.URL, "client-id", "client-secret",
		WithRedirectPort(0),
		WithBrowserOpener(openBrowser),
	)

	tok, err := exchange.UserAuthorization(t.Context(), "management")
	if err != nil {
		t.Fatalf("UserAuthorization failed: %v", err)
	}

	if tok.AccessToken != "user-tok" {
		t.Errorf("AccessToken = %q, want user-tok", tok.AccessToken)
	}
	if tok.RefreshToken != "user-refresh" {
		t.Errorf("RefreshToken = %q, want user-refresh", tok.RefreshToken)
	}

	// The authorization request carries a PKCE S256 challenge...
	if got := authQuery.Get("code_challenge_method"); got != "S256" {
		t.Errorf("code_challenge_method = %q, want S256", got)
	}
	challenge := authQuery.Get("code_challenge")
	if challenge == "" {
		t.Fatal("authorization request missing code_challenge")
	}
	if authQuery.Get("state") == "" {
		t.Error("authorization request missing state")
	}

	// ...and the code exchange proves possession of the matching verifier.
	if got := tokenForm.Get("code"); got != "auth-code" {
		t.Errorf("code = %q, want auth-code", got)
	}
	verifier := tokenForm.Get("code_verifier")
	if verifier == "" {
		t.Fatal("code exchange missing code_verifier")
	}
	sum := sha256.Sum256([]byte(verifier))
	if got := base64.RawURLEncoding.EncodeToString(sum[:]); got != challenge {
		t.Errorf("S256(verifier) = %q, want challenge %q", got, challenge)
	}
}

func TestUserAuthorizationDenied(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	openBrowser := func(authURL string) error {
		parsed, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		callback := parsed.Query().Get("redirect_uri") + "?error=access_denied"
		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		return nil
	}

	exchange := NewExchange(server.URL, "client-id", "client-secret",
		WithRedirectPort(0),
		WithBrowserOpener(openBrowser),
	)

	_, err := exchange.UserAuthorization(t.Context(), "management")
	if err == nil {
		t.Fatal("expected error for denied authorization")
	}

	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthorizationError, got %T: %v", err, err)
	}
	if authErr.Reason != "access_denied" {
		t.Errorf("Reason = %q, want access_denied", authErr.Reason)
	}
}

func TestUserAuthorizationStateMismatch(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	openBrowser := func(authURL string) error {
		parsed, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		callback := parsed.Query().Get("redirect_uri") + "?code=auth-code&state=forged"
		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("callback status = %d, want 400", resp.StatusCode)
		}
		return nil
	}

	exchange := NewExchange(server.URL, "client-id", "client-secret",
		WithRedirectPort(0),
		WithBrowserOpener(openBrowser),
	)

	_, err := exchange.UserAuthorization(t.Context(), "management")

	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthorizationError, got %T: %v", err, err)
	}
}

func TestUserAuthorizationTimeout(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	exchange := NewExchange(server.URL, "client-id", "client-secret",
		WithRedirectPort(0),
		WithAuthorizationTimeout(50*time.Millisecond),
		WithBrowserOpener(func(string) error { return nil }),
	)

	_, err := exchange.UserAuthorization(t.Context(), "management")
	if !errors.Is(err, ErrAuthorizationTimeout) {
		t.Fatalf("expected ErrAuthorizationTimeout, got: %v", err)
	}
}
