package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultOAuthStateTTL = 15 * time.Minute

// OAuthStateRecord binds a state nonce issued at authorization time to the
// redirect URI it was issued for. Consuming it is single-shot.
type OAuthStateRecord struct {
	State       string
	Platform    Platform
	RedirectURI string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (r OAuthStateRecord) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

type OAuthStateStore interface {
	Save(ctx context.Context, record OAuthStateRecord) error
	Consume(ctx context.Context, state string) (OAuthStateRecord, error)
}

// MemoryOAuthStateStore keeps pending authorization states in process memory.
// Suitable for a single gateway instance; multi-instance deployments need a
// shared backend behind the same interface.
type MemoryOAuthStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]OAuthStateRecord
}

func NewMemoryOAuthStateStore(ttl time.Duration) *MemoryOAuthStateStore {
	if ttl <= 0 {
		ttl = defaultOAuthStateTTL
	}
	return &MemoryOAuthStateStore{
		ttl:     ttl,
		entries: map[string]OAuthStateRecord{},
	}
}

func (s *MemoryOAuthStateStore) Save(_ context.Context, record OAuthStateRecord) error {
	if s == nil {
		return fmt.Errorf("core: oauth state store is not configured")
	}
	record.State = strings.TrimSpace(record.State)
	if record.State == "" {
		return fmt.Errorf("core: oauth state is required")
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Saves are rare enough that sweeping dead states here beats a janitor
	// goroutine.
	for state, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, state)
		}
	}
	s.entries[record.State] = record
	return nil
}

func (s *MemoryOAuthStateStore) Consume(_ context.Context, state string) (OAuthStateRecord, error) {
	if s == nil {
		return OAuthStateRecord{}, fmt.Errorf("core: oauth state store is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return OAuthStateRecord{}, fmt.Errorf("core: oauth state is required")
	}

	s.mu.Lock()
	record, ok := s.entries[state]
	delete(s.entries, state)
	s.mu.Unlock()

	switch {
	case !ok:
		return OAuthStateRecord{}, fmt.Errorf("core: oauth state not found")
	case record.expired(time.Now().UTC()):
		return OAuthStateRecord{}, fmt.Errorf("core: oauth state expired")
	}
	return record, nil
}

// GenerateOAuthState produces a URL-safe nonce with 192 bits of entropy.
func GenerateOAuthState() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
