package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/goetzcj/ninjamcp/internal/tokenstore"
)

// expiryMargin trims the server-declared token lifetime to 90% as a safety
// margin against clock skew and in-flight requests.
const expiryMargin = 0.9

// Store holds the two credential slots and mirrors every mutation to the
// persistence backend before the mutating call returns.
type Store struct {
	backend tokenstore.Backend
	now     func() time.Time

	mu      sync.Mutex
	records map[Slot]TokenRecord
}

// NewStore creates a Store with both slots empty. No I/O is performed until
// Load or the first mutation.
func NewStore(backend tokenstore.Backend) *Store {
	return &Store{
		backend: backend,
		now:     time.Now,
		records: emptyRecords(),
	}
}

func emptyRecords() map[Slot]TokenRecord {
	return map[Slot]TokenRecord{
		SlotClient: {},
		SlotUser:   {},
	}
}

// Load reads the persisted document, if any. A missing document is not an
// error; the store simply starts empty. A corrupted document is logged and
// treated the same way.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.InfoContext(ctx, "no persisted tokens found, starting empty")
			return nil
		}
		slog.ErrorContext(ctx, "failed to read token storage, starting empty", "error", err)
		return nil
	}

	var decoded map[Slot]TokenRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		slog.ErrorContext(ctx, "corrupted token storage, starting empty", "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := range s.records {
		if rec, ok := decoded[slot]; ok {
			s.records[slot] = rec
		}
	}

	slog.InfoContext(ctx, "loaded tokens from storage")
	return nil
}

// Set replaces the record in the given slot with a freshly acquired token and
// synchronously persists the full store. The expiry is computed from the
// server-declared lifetime with the safety margin applied.
//
// A persistence failure is logged, not escalated: the in-memory record still
// reflects the new token for the remainder of the process.
func (s *Store) Set(ctx context.Context, slot Slot, accessToken string, expiresIn int64, refreshToken, scope string) {
	expiresAt := s.now().Add(time.Duration(float64(expiresIn) * expiryMargin * float64(time.Second)))

	s.mu.Lock()
	s.records[slot] = TokenRecord{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Scope:        scope,
		TokenType:    "Bearer",
		Valid:        true,
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	slog.InfoContext(ctx, "token set", "slot", slot, "expires_at", expiresAt)
}

// Clear resets one slot to empty-and-invalid and persists.
func (s *Store) Clear(ctx context.Context, slot Slot) {
	s.mu.Lock()
	s.records[slot] = TokenRecord{}
	s.persistLocked(ctx)
	s.mu.Unlock()

	slog.InfoContext(ctx, "token cleared", "slot", slot)
}

// ClearAll resets both slots and persists.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.records = emptyRecords()
	s.persistLocked(ctx)
	s.mu.Unlock()

	slog.InfoContext(ctx, "all tokens cleared")
}

// Get returns the record in the given slot.
func (s *Store) Get(slot Slot) TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[slot]
}

// Snapshot returns a copy of both records.
func (s *Store) Snapshot() map[Slot]TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Slot]TokenRecord, len(s.records))
	for slot, rec := range s.records {
		out[slot] = rec
	}
	return out
}

// persistLocked writes the full store through the backend. Callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		slog.ErrorContext(ctx, "failed to serialize token storage", "error", err)
		return
	}

	if err := s.backend.Write(ctx, data); err != nil {
		slog.ErrorContext(ctx, "failed to persist token storage", "error", err)
	}
}
