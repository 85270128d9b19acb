package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/utakatalp/league-viewer/internal/betting"
)

// ErrNotFound means the session id is unknown or expired.
var ErrNotFound = errors.New("game session not found")

// Store keeps bracket state for the lifetime of an interactive session.
type Store interface {
	Create(ctx context.Context, b betting.Bracket) (string, error)
	Get(ctx context.Context, id string) (betting.Bracket, error)
	Put(ctx context.Context, id string, b betting.Bracket) error
	Delete(ctx context.Context, id string) error
}

func newID() string {
	return uuid.NewString()
}

type memoryEntry struct {
	bracket   betting.Bracket
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Entries expire ttl after their
// last write; a zero ttl keeps them forever. Expired entries are dropped
// on the next write.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Create(ctx context.Context, b betting.Bracket) (string, error) {
	id := newID()
	if err := s.Put(ctx, id, b); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (betting.Bracket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return betting.Bracket{}, ErrNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, id)
		return betting.Bracket{}, ErrNotFound
	}
	return e.bracket, nil
}

func (s *MemoryStore) Put(ctx context.Context, id string, b betting.Bracket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	e := memoryEntry{bracket: b}
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}
	s.entries[id] = e
	return nil
}

// sweep drops expired entries. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	for id, e := range s.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
