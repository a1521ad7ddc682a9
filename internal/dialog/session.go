package dialog

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State tracks a user's progress through the selection wizard.
type State int

const (
	// StateIdle is the initial state; only /start leaves it.
	StateIdle State = iota
	// StateDegree awaits one of the fixed degree labels.
	StateDegree
	// StateTask awaits one of the fixed task labels.
	StateTask
	// StateTopic awaits free-text topic input.
	StateTopic
)

// DefaultIdleTimeout is how long an untouched session survives.
const DefaultIdleTimeout = 30 * time.Minute

// Session is one user's in-flight conversation. Ephemeral: lost on
// restart, discarded when the wizard completes.
type Session struct {
	State     State
	Degree    string
	Task      string
	UpdatedAt time.Time
}

// Manager owns the session map and evicts idle sessions so the map
// cannot grow without bound.
type Manager struct {
	sessions    map[int64]*Session
	idleTimeout time.Duration
	now         func() time.Time
	logger      zerolog.Logger
	mu          sync.Mutex
	stopChan    chan struct{}
}

// NewManager creates a session manager and starts its eviction loop.
func NewManager(idleTimeout time.Duration, logger zerolog.Logger) *Manager {
	if idleTimeout == 0 {
		idleTimeout = DefaultIdleTimeout
	}

	m := &Manager{
		sessions:    make(map[int64]*Session),
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger.With().Str("component", "session-manager").Logger(),
		stopChan:    make(chan struct{}),
	}

	go m.evictIdleSessions()

	return m
}

// Get returns the user's session, or nil if none exists.
func (m *Manager) Get(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// Start discards any existing session and creates a fresh one in the
// degree-selection state.
func (m *Manager) Start(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := &Session{State: StateDegree, UpdatedAt: m.now()}
	m.sessions[userID] = sess
	return sess
}

// Touch advances the session's activity timestamp.
func (m *Manager) Touch(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		sess.UpdatedAt = m.now()
	}
}

// Drop removes the user's session.
func (m *Manager) Drop(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop shuts down the eviction loop.
func (m *Manager) Stop() {
	close(m.stopChan)
}

// evictIdleSessions periodically removes sessions idle past the timeout.
func (m *Manager) evictIdleSessions() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopChan:
			return
		}
	}
}

// sweep removes every session idle past the timeout.
func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for userID, sess := range m.sessions {
		if now.Sub(sess.UpdatedAt) > m.idleTimeout {
			delete(m.sessions, userID)
			m.logger.Debug().
				Int64("user_id", userID).
				Dur("idle", now.Sub(sess.UpdatedAt)).
				Msg("Evicted idle session")
		}
	}
}
