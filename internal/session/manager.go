package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"argus/internal/config"
	"argus/internal/explain"
	"argus/internal/results"
	"argus/pkg/lifecycle"
)

// Manager is the cookie-addressed session registry. Sessions expire
// after the configured idle TTL; a janitor goroutine tied to the
// lifecycle coordinator sweeps them out.
type Manager struct {
	results results.System
	explain explain.System
	logger  *slog.Logger
	ttl     time.Duration
	sweep   time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager.
func NewManager(
	cfg *config.SessionConfig,
	res results.System,
	exp explain.System,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		results:  res,
		explain:  exp,
		logger:   logger.With("system", "session"),
		ttl:      cfg.TTLDuration(),
		sweep:    cfg.SweepIntervalDuration(),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Handler returns the HTTP handler for workflow endpoints.
func (m *Manager) Handler() *Handler {
	return NewHandler(m, m.logger)
}

// Start launches the expiry janitor. It runs until the lifecycle
// context is cancelled; expired sessions need no teardown beyond
// removal, so no shutdown hook is registered.
func (m *Manager) Start(lc *lifecycle.Coordinator) error {
	go m.janitor(lc.Context())
	return nil
}

// Session returns the session with the given id, when it exists.
func (m *Manager) Session(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Create registers a new session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.New(), m.results, m.explain, m.logger)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session", s.ID())
	return s
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) janitor(ctx context.Context) {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if expired := m.expire(time.Now()); expired > 0 {
				m.logger.Info("sessions expired", "count", expired)
			}
		}
	}
}

// expire removes sessions idle longer than the TTL and reports how
// many were dropped. A session mid-generation keeps running; its
// goroutine holds its own reference and the result is simply never
// observed again.
func (m *Manager) expire(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	stale := make([]uuid.UUID, 0)
	for id, s := range m.sessions {
		if s.Touched().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	return len(stale)
}
