package session

import (
	"context"
	"sync"
	"time"

	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

type memoryEntry struct {
	activated bool
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. State is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-memory store. A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) expired(e *memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.After(e.expiresAt)
}

func (s *MemoryStore) touch(e *memoryEntry, now time.Time) {
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}
}

func (s *MemoryStore) Get(_ context.Context, sender string) (Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sender]
	if !ok || s.expired(e, s.now()) {
		return Session{}, false, nil
	}
	return Session{Sender: sender, Activated: e.activated}, true, nil
}

func (s *MemoryStore) EnsurePending(_ context.Context, sender string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.sessions[sender]
	if !ok || s.expired(e, now) {
		e = &memoryEntry{}
		s.sessions[sender] = e
	}
	s.touch(e, now)
	return Session{Sender: sender, Activated: e.activated}, nil
}

func (s *MemoryStore) Activate(_ context.Context, sender string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.sessions[sender]
	if !ok || s.expired(e, now) {
		e = &memoryEntry{}
		s.sessions[sender] = e
	}
	was := e.activated
	e.activated = true
	s.touch(e, now)
	return was, nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for sender, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, sender)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logx.Debug().Int("removed", n).Msg("Expired WhatsApp sessions swept")
			}
		}
	}
}
