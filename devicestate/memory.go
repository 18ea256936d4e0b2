package devicestate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process [Store] used by tests and demos. TTLs are
// honored lazily on read against the injected clock.
type MemoryStore struct {
	mu    sync.Mutex
	now   func() time.Time
	trust map[string]memoryTrustEntry
	prefs map[string]string
}

type memoryTrustEntry struct {
	record    TrustRecord
	expiresAt time.Time
}

// NewMemoryStore returns an empty store using the real clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock returns an empty store on a caller-supplied clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		now:   now,
		trust: make(map[string]memoryTrustEntry),
		prefs: make(map[string]string),
	}
}

// SaveTrust implements [Store].
func (s *MemoryStore) SaveTrust(_ context.Context, marker string, record TrustRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryTrustEntry{record: record}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.trust[marker] = entry
	return nil
}

// GetTrust implements [Store].
func (s *MemoryStore) GetTrust(_ context.Context, marker string) (TrustRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.trust[marker]
	if !ok {
		return TrustRecord{}, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.trust, marker)
		return TrustRecord{}, ErrNotFound
	}
	return entry.record, nil
}

// DeleteTrust implements [Store].
func (s *MemoryStore) DeleteTrust(_ context.Context, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trust, marker)
	return nil
}

// SetChannelPreference implements [Store].
func (s *MemoryStore) SetChannelPreference(_ context.Context, marker, purpose, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[marker+":"+purpose] = channel
	return nil
}

// GetChannelPreference implements [Store].
func (s *MemoryStore) GetChannelPreference(_ context.Context, marker, purpose string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs[marker+":"+purpose], nil
}
