package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"peakform/coach-app/internal/domain"
)

// ErrSessionNotFound is returned when no live actor exists for an id.
var ErrSessionNotFound = errors.New("no live session with that id")

// Manager addresses session actors by session id. It is the only shared
// structure in the live-session path; everything behind it is
// single-writer per session.
type Manager struct {
	mu          sync.RWMutex
	actors      map[string]*Actor
	mailboxSize int
	now         func() time.Time
}

// NewManager creates a session manager. mailboxSize bounds each actor's
// pending-command queue.
func NewManager(mailboxSize int) *Manager {
	return &Manager{
		actors:      make(map[string]*Actor),
		mailboxSize: mailboxSize,
		now:         time.Now,
	}
}

// Spawn creates the actor for a prepared session and immediately issues
// the Start command, registering the owner as the first participant.
func (m *Manager) Spawn(ctx context.Context, initial domain.WorkoutSession, ownerName string) (domain.WorkoutSession, error) {
	m.mu.Lock()
	if _, exists := m.actors[initial.ID]; exists {
		m.mu.Unlock()
		return domain.WorkoutSession{}, errors.New("session actor already exists for id " + initial.ID)
	}
	actor := newActor(initial, m.mailboxSize, m.now, m.remove)
	m.actors[initial.ID] = actor
	m.mu.Unlock()

	snapshot, err := actor.Do(ctx, func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return s.Start(ownerName, now)
	})
	if err != nil {
		// Start can only fail if the session was not in preparing;
		// halt the actor so neither the goroutine nor the id leaks.
		actor.halt()
		return domain.WorkoutSession{}, err
	}
	return snapshot, nil
}

// Get returns the live actor for a session id.
func (m *Manager) Get(id string) (*Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	actor, ok := m.actors[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return actor, nil
}

// Do runs a command against the identified session.
func (m *Manager) Do(ctx context.Context, id string, cmd Command) (domain.WorkoutSession, error) {
	actor, err := m.Get(id)
	if err != nil {
		return domain.WorkoutSession{}, err
	}
	return actor.Do(ctx, cmd)
}

// Live returns the number of live session actors.
func (m *Manager) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.actors)
}

// remove is the actor's terminal callback; the id becomes unreachable
// once its session completes or is abandoned.
func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.actors, id)
}

// Shutdown abandons every live session, used on server exit so no
// session is left half-open in memory.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	actors := make([]*Actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.mu.RUnlock()

	for _, actor := range actors {
		_, _ = actor.Do(ctx, func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
			return s.Abandon("server shutting down", now)
		})
	}
}
