package dialog

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m := NewManager(30*time.Minute, zerolog.Nop())
	t.Cleanup(m.Stop)
	return m
}

func TestStartCreatesFreshSession(t *testing.T) {
	m := newTestManager(t)

	sess := m.Start(1)
	if sess.State != StateDegree {
		t.Errorf("expected StateDegree, got %v", sess.State)
	}

	sess.Degree = Degrees[0]
	sess.State = StateTask

	sess = m.Start(1)
	if sess.State != StateDegree || sess.Degree != "" {
		t.Error("expected Start to discard the previous session")
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 session, got %d", m.Len())
	}
}

func TestGetUnknownUser(t *testing.T) {
	m := newTestManager(t)

	if sess := m.Get(99); sess != nil {
		t.Errorf("expected nil for unknown user, got %v", sess)
	}
}

func TestDrop(t *testing.T) {
	m := newTestManager(t)

	m.Start(1)
	m.Drop(1)
	if m.Get(1) != nil {
		t.Error("expected session to be gone after Drop")
	}
	if m.Len() != 0 {
		t.Errorf("expected 0 sessions, got %d", m.Len())
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	m := newTestManager(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m.Start(1)
	m.Start(2)

	// User 2 stays active; user 1 goes idle past the timeout.
	m.now = func() time.Time { return base.Add(29 * time.Minute) }
	m.Touch(2)

	m.now = func() time.Time { return base.Add(31 * time.Minute) }
	m.sweep()

	if m.Get(1) != nil {
		t.Error("expected idle session 1 to be evicted")
	}
	if m.Get(2) == nil {
		t.Error("expected active session 2 to survive")
	}
}

func TestSweepKeepsSessionsInsideTimeout(t *testing.T) {
	m := newTestManager(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.Start(1)

	m.now = func() time.Time { return base.Add(30 * time.Minute) }
	m.sweep()

	if m.Get(1) == nil {
		t.Error("expected session at exactly the timeout to survive")
	}
}
