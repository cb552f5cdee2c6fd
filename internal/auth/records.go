package auth

import "time"

// Slot identifies one of the two credential identities the manager maintains.
type Slot string

const (
	// SlotClient holds the unattended machine identity obtained through the
	// client-credentials grant.
	SlotClient Slot = "client"

	// SlotUser holds the human identity obtained through the interactive
	// authorization-code grant.
	SlotUser Slot = "user"
)

// Mode selects which OAuth2 flows the manager may run.
type Mode string

const (
	ModeClient Mode = "client"
	ModeUser   Mode = "user"
	ModeHybrid Mode = "hybrid"
)

// TokenRecord is the persisted state of one credential slot.
//
// A record is only ever replaced wholesale (Set) or reset to its zero value
// (Clear); fields are never mutated individually.
type TokenRecord struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	Scope        string    `json:"scope,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Valid        bool      `json:"valid"`
}

// Expired reports whether the record's expiry has passed. Records without an
// expiry are treated as expired.
func (r TokenRecord) Expired(now time.Time) bool {
	if r.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(r.ExpiresAt)
}

// Usable reports whether the record can back an API request right now:
// it was set by a successful acquisition, carries an access token, and has
// not expired.
func (r TokenRecord) Usable(now time.Time) bool {
	return r.Valid && r.AccessToken != "" && !r.Expired(now)
}

// Capabilities describes what the current token state allows. Derived on
// every status query, never persisted.
type Capabilities struct {
	CanUseClientCredentials bool `json:"can_use_client_credentials"`
	CanUseUserAuth          bool `json:"can_use_user_auth"`
	SupportsRefresh         bool `json:"supports_refresh"`
}

// Status is a point-in-time view of the authentication state.
type Status struct {
	Mode         Mode                 `json:"auth_mode"`
	ClientScopes string               `json:"client_scopes"`
	UserScopes   string               `json:"user_scopes"`
	Tokens       map[Slot]TokenRecord `json:"tokens"`
	Capabilities Capabilities         `json:"capabilities"`
}

// BestToken returns the usable record the selector picks for the operation,
// or false if no usable credential applies.
//
// Ticketing operations are routed to the user slot only: those endpoints
// require a human identity for attribution. Everything else prefers the
// machine identity for reliability, falling back to the user slot.
func (s Status) BestToken(operation string, now time.Time) (TokenRecord, bool) {
	if RequiresUserIdentity(operation) {
		if rec := s.Tokens[SlotUser]; rec.Usable(now) {
			return rec, true
		}
		return TokenRecord{}, false
	}

	if rec := s.Tokens[SlotClient]; rec.Usable(now) {
		return rec, true
	}
	if rec := s.Tokens[SlotUser]; rec.Usable(now) {
		return rec, true
	}
	return TokenRecord{}, false
}

// computeCapabilities derives the capability flags from the two records.
func computeCapabilities(tokens map[Slot]TokenRecord, now time.Time) Capabilities {
	return Capabilities{
		CanUseClientCredentials: tokens[SlotClient].Usable(now),
		CanUseUserAuth:          tokens[SlotUser].Usable(now),
		SupportsRefresh:         tokens[SlotUser].RefreshToken != "",
	}
}
