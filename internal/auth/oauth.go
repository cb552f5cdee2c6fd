package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/goetzcj/ninjamcp/internal/observability"
)

// Defaults for the interactive authorization flow.
const (
	DefaultRedirectPort         = 8090
	DefaultAuthorizationTimeout = 300 * time.Second
)

const (
	authorizePath = "/oauth/authorize"
	tokenPath     = "/oauth/token"
	callbackPath  = "/callback"
)

const successPage = `<html>
<body>
<h1>Authorization Successful!</h1>
<p>You can close this window and return to your application.</p>
<script>window.close();</script>
</body>
</html>
`

const errorPage = `<html>
<body>
<h1>Authorization Failed</h1>
<p>Error: %s</p>
</body>
</html>
`

// ExchangeOption configures an Exchange.
type ExchangeOption func(*Exchange)

// WithRedirectPort sets the local callback listener port. Port 0 binds an
// ephemeral port (useful in tests).
func WithRedirectPort(port int) ExchangeOption {
	return func(e *Exchange) {
		e.redirectPort = port
	}
}

// WithAuthorizationTimeout bounds the wait for the browser redirect.
func WithAuthorizationTimeout(d time.Duration) ExchangeOption {
	return func(e *Exchange) {
		e.waitTimeout = d
	}
}

// WithHTTPClient sets the HTTP client used for token endpoint exchanges.
func WithHTTPClient(c *http.Client) ExchangeOption {
	return func(e *Exchange) {
		e.httpClient = c
	}
}

// WithBrowserOpener replaces how the authorization URL is surfaced to the
// human. The default launches the platform browser.
func WithBrowserOpener(open func(url string) error) ExchangeOption {
	return func(e *Exchange) {
		e.openBrowser = open
	}
}

// Exchange is a stateless OAuth2 protocol client for a single token endpoint.
// It performs the three grant exchanges the manager needs and hosts the
// temporary local callback listener for the interactive flow.
type Exchange struct {
	baseURL      string
	clientID     string
	clientSecret string

	redirectPort int
	waitTimeout  time.Duration
	httpClient   *http.Client
	openBrowser  func(url string) error
}

// NewExchange creates an Exchange for the given authorization server.
// The configured identity is a shared-secret machine identity; the
// interactive flow additionally binds requests to this process via PKCE.
func NewExchange(baseURL, clientID, clientSecret string, opts ...ExchangeOption) *Exchange {
	e := &Exchange{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectPort: DefaultRedirectPort,
		waitTimeout:  DefaultAuthorizationTimeout,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		openBrowser:  openBrowser,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClientCredentials performs the client-credentials grant for the given
// scope.
func (e *Exchange) ClientCredentials(ctx context.Context, scope string) (*oauth2.Token, error) {
	cfg := &clientcredentials.Config{
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
		TokenURL:     e.baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if scope != "" {
		cfg.Scopes = []string{scope}
	}

	tok, err := cfg.Token(e.oauthContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("client credentials exchange: %w", normalizeTokenError(err))
	}
	return tok, nil
}

// Refresh performs the refresh-token grant. The returned token may or may not
// carry a rotated refresh token; the caller decides whether to overwrite the
// stored one.
func (e *Exchange) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	cfg := e.authCodeConfig("", "")

	// A token carrying only the refresh token forces an immediate refresh.
	src := cfg.TokenSource(e.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh exchange: %w", normalizeTokenError(err))
	}
	return tok, nil
}

// callbackResult carries the outcome of the browser redirect.
type callbackResult struct {
	code string
	err  error
}

// UserAuthorization performs the full interactive authorization-code flow
// with PKCE (S256): it starts a short-lived local callback listener, surfaces
// the authorization URL to the human, waits for the redirect, and exchanges
// the captured code. The listener is torn down on every exit path.
func (e *Exchange) UserAuthorization(ctx context.Context, scope string) (*oauth2.Token, error) {
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	// Bind synchronously so a port conflict surfaces immediately.
	listener, err := net.Listen("tcp", "localhost:"+strconv.Itoa(e.redirectPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURI := fmt.Sprintf("http://localhost:%d%s", port, callbackPath)
	cfg := e.authCodeConfig(scope, redirectURI)

	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.Handle("GET "+callbackPath, observability.RequestLogger(slog.Default())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()

			if errCode := q.Get("error"); errCode != "" {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, errorPage, errCode)
				results <- callbackResult{err: &AuthorizationError{Reason: errCode}}
				return
			}

			if q.Get("state") != state {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, errorPage, "state mismatch")
				results <- callbackResult{err: &AuthorizationError{Reason: "state mismatch"}}
				return
			}

			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, successPage)
			results <- callbackResult{code: q.Get("code")}
		})))

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "callback listener error", "error", err)
		}
	}()
	// Teardown on every exit path: success, error, or timeout.
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
		}
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	slog.InfoContext(ctx, "starting user authorization flow", "port", port)
	slog.InfoContext(ctx, "authorization URL", "url", authURL)

	if err := e.openBrowser(authURL); err != nil {
		slog.WarnContext(ctx, "could not open browser, complete the authorization URL manually", "error", err)
	}

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(e.oauthContext(ctx), res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("authorization code exchange: %w", normalizeTokenError(err))
		}
		return tok, nil
	case <-time.After(e.waitTimeout):
		return nil, ErrAuthorizationTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// authCodeConfig builds the oauth2 configuration for the authorization-code
// and refresh grants. Client id and secret travel in the POST body.
func (e *Exchange) authCodeConfig(scope, redirectURI string) *oauth2.Config {
	cfg := &oauth2.Config{
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   e.baseURL + authorizePath,
			TokenURL:  e.baseURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if scope != "" {
		cfg.Scopes = []string{scope}
	}
	return cfg
}

// oauthContext injects the exchange's HTTP client for token endpoint calls
// (oauth2 picks up custom clients via context, per its documented API).
func (e *Exchange) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
}

// openBrowser launches the platform browser with the given URL.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
