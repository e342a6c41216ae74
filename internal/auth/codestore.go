package auth

import (
	"context"
	"sync"
	"time"
)

// CodeEntry is a pending OTP for one mobile number.
type CodeEntry struct {
	Hash      []byte
	ExpiresAt time.Time
	Attempts  int
}

// CodeStore holds at most one pending code per mobile number.
type CodeStore interface {
	Put(ctx context.Context, mobile string, hash []byte, ttl time.Duration) error
	// Get returns errNoCode when nothing is pending or the entry has expired.
	Get(ctx context.Context, mobile string) (CodeEntry, error)
	IncrementAttempts(ctx context.Context, mobile string) (int, error)
	Delete(ctx context.Context, mobile string) error
}

type MemoryCodeStore struct {
	mu    sync.Mutex
	items map[string]CodeEntry
	now   func() time.Time
}

func NewMemoryCodeStore(now func() time.Time) *MemoryCodeStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryCodeStore{items: make(map[string]CodeEntry), now: now}
}

func (s *MemoryCodeStore) Put(ctx context.Context, mobile string, hash []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.items[mobile] = CodeEntry{Hash: hash, ExpiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryCodeStore) Get(ctx context.Context, mobile string) (CodeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[mobile]
	if !ok {
		return CodeEntry{}, errNoCode
	}
	if !s.now().Before(entry.ExpiresAt) {
		delete(s.items, mobile)
		return CodeEntry{}, errNoCode
	}
	return entry, nil
}

func (s *MemoryCodeStore) IncrementAttempts(ctx context.Context, mobile string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[mobile]
	if !ok {
		return 0, errNoCode
	}
	entry.Attempts++
	s.items[mobile] = entry
	return entry.Attempts, nil
}

func (s *MemoryCodeStore) Delete(ctx context.Context, mobile string) error {
	s.mu.Lock()
	delete(s.items, mobile)
	s.mu.Unlock()
	return nil
}

var _ CodeStore = (*MemoryCodeStore)(nil)
