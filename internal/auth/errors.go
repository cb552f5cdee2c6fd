package auth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Sentinel errors for the manager's terminal failure modes.
var (
	// ErrNoCredentials is returned when a flow would be required but the
	// manager was constructed without machine credentials (injection-only
	// mode) and no injected token is usable.
	ErrNoCredentials = errors.New("no credentials configured")

	// ErrAuthenticationFailed is returned when cache, refresh, and flow
	// attempts are all exhausted without producing a usable token.
	ErrAuthenticationFailed = errors.New("authentication failed: no valid token available")

	// ErrAuthorizationTimeout is returned when the interactive flow's wait
	// for the browser redirect exceeds its deadline.
	ErrAuthorizationTimeout = errors.New("authorization timed out waiting for callback")
)

// ProtocolError is a token endpoint rejection: the server answered with a
// non-2xx status. Distinct from transport-level failures, which surface as
// plain wrapped errors.
type ProtocolError struct {
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("token endpoint rejected request: status %d: %s", e.StatusCode, e.Body)
}

// AuthorizationError is a denial delivered on the callback redirect
// (e.g. the user refused consent).
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed: %s", e.Reason)
}

// normalizeTokenError maps oauth2 retrieval failures onto the package's
// error taxonomy. Endpoint rejections become *ProtocolError; everything else
// (DNS, connect, timeout) passes through as a transport failure.
func normalizeTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return &ProtocolError{
			StatusCode: re.Response.StatusCode,
			Body:       string(re.Body),
		}
	}
	return err
}
