package session

import (
	"context"
	"sync"
	"time"

	"github.com/airkorea/flightdesk/internal/domain"
)

// MemoryStore is the default, in-process session backend. Expiry is checked
// lazily on access and swept by a janitor so abandoned flows do not pile up.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.FlightSession
	ttl      time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*domain.FlightSession{},
		ttl:      ttl,
	}
}

// StartJanitor sweeps expired sessions until ctx is canceled.
func (m *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep(time.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *MemoryStore) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
		}
	}
}

func (m *MemoryStore) expired(s *domain.FlightSession, now time.Time) bool {
	return now.Sub(s.UpdatedAt) > m.ttl
}

func (m *MemoryStore) Create(ctx context.Context, s *domain.FlightSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*domain.FlightSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(s, time.Now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	copied := *s
	return &copied, nil
}

func (m *MemoryStore) Update(ctx context.Context, s *domain.FlightSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
