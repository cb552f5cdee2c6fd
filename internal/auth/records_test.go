package auth

import (
	"testing"
	"time"
)

func TestTokenRecordUsable(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  TokenRecord
		want bool
	}{
		{
			name: "valid unexpired token",
			rec: TokenRecord{
				AccessToken: "tok",
				ExpiresAt:   now.Add(time.Hour),
				Valid:       true,
			},
			want: true,
		},
		{
			name: "expired token",
			rec: TokenRecord{
				AccessToken: "tok",
				ExpiresAt:   now.Add(-time.Second),
				Valid:       true,
			},
			want: false,
		},
		{
			name: "expiry exactly now",
			rec: TokenRecord{
				AccessToken: "tok",
				ExpiresAt:   now,
				Valid:       true,
			},
			want: false,
		},
		{
			name: "missing access token",
			rec: TokenRecord{
				ExpiresAt: now.Add(time.Hour),
				Valid:     true,
			},
			want: false,
		},
		{
			name: "invalid flag unset",
			rec: TokenRecord{
				AccessToken: "tok",
				ExpiresAt:   now.Add(time.Hour),
			},
			want: false,
		},
		{
			name: "zero expiry treated as expired",
			rec: TokenRecord{
				AccessToken: "tok",
				Valid:       true,
			},
			want: false,
		},
		{
			name: "zero value",
			rec:  TokenRecord{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Usable(now); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusBestToken(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	clientRec := TokenRecord{AccessToken: "client-tok", ExpiresAt: now.Add(time.Hour), Valid: true}
	userRec := TokenRecord{AccessToken: "user-tok", ExpiresAt: now.Add(time.Hour), Valid: true}
	expiredUser := TokenRecord{AccessToken: "stale", ExpiresAt: now.Add(-time.Minute), Valid: true}

	tests := []struct {
		name      string
		tokens    map[Slot]TokenRecord
		operation string
		wantToken string
		wantOK    bool
	}{
		{
			name:      "non-ticket op prefers client",
			tokens:    map[Slot]TokenRecord{SlotClient: clientRec, SlotUser: userRec},
			operation: "get_devices",
			wantToken: "client-tok",
			wantOK:    true,
		},
		{
			name:      "non-ticket op falls back to user",
			tokens:    map[Slot]TokenRecord{SlotUser: userRec},
			operation: "get_devices",
			wantToken: "user-tok",
			wantOK:    true,
		},
		{
			name:      "ticket op requires user",
			tokens:    map[Slot]TokenRecord{SlotClient: clientRec, SlotUser: userRec},
			operation: "get_my_tickets",
			wantToken: "user-tok",
			wantOK:    true,
		},
		{
			name:      "ticket op never uses client",
			tokens:    map[Slot]TokenRecord{SlotClient: clientRec},
			operation: "get_my_tickets",
			wantOK:    false,
		},
		{
			name:      "ticket op with expired user fails",
			tokens:    map[Slot]TokenRecord{SlotClient: clientRec, SlotUser: expiredUser},
			operation: "update_ticket_status",
			wantOK:    false,
		},
		{
			name:      "no tokens at all",
			tokens:    map[Slot]TokenRecord{},
			operation: "get_devices",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := Status{Tokens: tt.tokens}
			rec, ok := status.BestToken(tt.operation, now)
			if ok != tt.wantOK {
				t.Fatalf("BestToken() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && rec.AccessToken != tt.wantToken {
				t.Errorf("BestToken() = %q, want %q", rec.AccessToken, tt.wantToken)
			}
		})
	}
}

func TestComputeCapabilities(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	usable := TokenRecord{AccessToken: "tok", ExpiresAt: now.Add(time.Hour), Valid: true}

	tests := []struct {
		name   string
		tokens map[Slot]TokenRecord
		want   Capabilities
	}{
		{
			name:   "both slots empty",
			tokens: map[Slot]TokenRecord{},
			want:   Capabilities{},
		},
		{
			name:   "client only",
			tokens: map[Slot]TokenRecord{SlotClient: usable},
			want:   Capabilities{CanUseClientCredentials: true},
		},
		{
			name:   "user with refresh token",
			tokens: map[Slot]TokenRecord{SlotUser: {AccessToken: "tok", RefreshToken: "refresh", ExpiresAt: now.Add(time.Hour), Valid: true}},
			want:   Capabilities{CanUseUserAuth: true, SupportsRefresh: true},
		},
		{
			name:   "expired user token still supports refresh",
			tokens: map[Slot]TokenRecord{SlotUser: {AccessToken: "tok", RefreshToken: "refresh", ExpiresAt: now.Add(-time.Minute), Valid: true}},
			want:   Capabilities{SupportsRefresh: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeCapabilities(tt.tokens, now); got != tt.want {
				t.Errorf("computeCapabilities() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
