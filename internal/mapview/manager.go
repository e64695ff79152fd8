package mapview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stayko/api/internal/geo"
	"github.com/stayko/api/internal/logger"
	"github.com/stayko/api/internal/models"
)

// ErrSessionNotFound is returned when the referenced session does not exist
// or was already destroyed.
var ErrSessionNotFound = errors.New("map session not found")

const (
	// sessionIdleTTL is how long a session may go without any interaction
	// before the sweeper evicts it. Clients that navigate away cleanly
	// destroy their session explicitly; the TTL catches the ones that
	// never send the delete (closed tab, dropped connection).
	sessionIdleTTL = 30 * time.Minute
	sweepInterval  = time.Minute
)

// ListingSource supplies the listing snapshot a new session is seeded with.
// Satisfied by the listing service.
type ListingSource interface {
	ListAll(ctx context.Context) ([]models.Listing, error)
}

// Manager owns the live map sessions. Sessions are created on page load,
// looked up per interaction, and destroyed on navigation away.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	listings ListingSource
	routes   geo.RouteService
	log      *logger.Logger
}

// NewManager creates a session manager.
func NewManager(listings ListingSource, routes geo.RouteService, log *logger.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		listings: listings,
		routes:   routes,
		log:      log,
	}
}

// Create loads the current listing set and opens a new session over it.
// The snapshot is one-shot: later listing mutations do not flow into
// sessions already open.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	listings, err := m.listings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	session := newSession(listings, m.routes, m.log)

	m.mu.Lock()
	m.sessions[session.id] = session
	m.mu.Unlock()

	m.log.Info("Map session created", map[string]interface{}{
		"session_id": session.id,
		"listings":   len(listings),
	})

	return session, nil
}

// Get returns the session with the given id and marks it as active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	session.touch(time.Now())
	return session, nil
}

// Destroy removes a session. Any in-flight route fetch for it resolves into
// a dropped session and is garbage collected with it.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// StartSweeper runs the idle-session sweep until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.sweepExpired(now)
			}
		}
	}()
}

// sweepExpired evicts every session idle longer than the TTL and returns
// how many were removed.
func (m *Manager) sweepExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, session := range m.sessions {
		if session.idleSince(now) > sessionIdleTTL {
			delete(m.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		m.log.Info("Evicted idle map sessions", map[string]interface{}{
			"evicted":   evicted,
			"remaining": len(m.sessions),
		})
	}
	return evicted
}
