package visitors

import (
	"context"
	"sync"
	"time"

	"github.com/you/retaildash/domain"
)

type memoryEntry struct {
	cookies   []domain.StoredCookie
	expiresAt time.Time
}

// MemoryCookieStore implements domain.CookieStore in process memory
type MemoryCookieStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCookieStore creates a store whose entries expire after ttl.
// A zero ttl keeps entries forever.
func NewMemoryCookieStore(ttl time.Duration) *MemoryCookieStore {
	return &MemoryCookieStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryCookieStore) Load(_ context.Context, visitorID string) ([]domain.StoredCookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[visitorID]
	if !ok {
		return nil, domain.ErrVisitorNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, visitorID)
		return nil, domain.ErrVisitorNotFound
	}
	return append([]domain.StoredCookie(nil), entry.cookies...), nil
}

func (s *MemoryCookieStore) Save(_ context.Context, visitorID string, cookies []domain.StoredCookie) error {
	entry := memoryEntry{cookies: append([]domain.StoredCookie(nil), cookies...)}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.pruneLocked()
	s.entries[visitorID] = entry
	s.mu.Unlock()
	return nil
}

// pruneLocked drops expired entries. Callers hold s.mu.
func (s *MemoryCookieStore) pruneLocked() {
	now := s.now()
	for id, entry := range s.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryCookieStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryCookieStore) Delete(_ context.Context, visitorID string) error {
	s.mu.Lock()
	delete(s.entries, visitorID)
	s.mu.Unlock()
	return nil
}

var _ domain.CookieStore = (*MemoryCookieStore)(nil)
