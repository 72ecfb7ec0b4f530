package session

import (
	"errors"
	"sync"
	"time"

	"github.com/aldenpratama/blackjack-bot-be/internal/game"
)

var (
	// ErrConflictingSession means a create was requested while the
	// player already has an active session. The caller is expected to
	// evict the stale one explicitly first.
	ErrConflictingSession = errors.New("player already has an active session")

	// ErrNoActiveSession means an action arrived with no session to
	// apply it to. Nothing is mutated.
	ErrNoActiveSession = errors.New("no active session for player")
)

type entry struct {
	mu         sync.Mutex
	sess       *game.Session
	lastAction time.Time
}

// Registry maps player id to that player's single active session. It
// owns session lifetime: sessions enter through Create and leave only
// through Remove, and every action on a session runs under that
// player's entry lock so transitions stay sequential.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// Create registers the session produced by deal under playerID. The key
// is reserved under the registry lock after the at-most-one-session
// check, then deal runs outside it, so one player's deal (which may do
// ledger I/O) never stalls the other players. Actions racing the deal
// wait on the reservation's entry lock; a failed deal withdraws the
// reservation and registers nothing. A removal racing the deal wins:
// the reservation stays gone and the create reports no active session.
func (r *Registry) Create(playerID string, deal func() (*game.Session, error)) (*game.Session, error) {
	e := &entry{lastAction: time.Now()}
	e.mu.Lock()
	defer e.mu.Unlock()

	r.mu.Lock()
	if _, exists := r.sessions[playerID]; exists {
		r.mu.Unlock()
		return nil, ErrConflictingSession
	}
	r.sessions[playerID] = e
	r.mu.Unlock()

	s, err := deal()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[playerID] != e {
		if err != nil {
			return nil, err
		}
		return nil, ErrNoActiveSession
	}
	if err != nil {
		delete(r.sessions, playerID)
		return nil, err
	}

	e.sess = s
	return s, nil
}

// WithSession runs fn against the player's session while holding that
// player's lock, serializing actions per player id. The entry is
// re-checked after the lock is taken so an action racing a removal sees
// ErrNoActiveSession instead of a dead session.
func (r *Registry) WithSession(playerID string, fn func(*game.Session) error) error {
	r.mu.RLock()
	e, ok := r.sessions[playerID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoActiveSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.mu.RLock()
	current, ok := r.sessions[playerID]
	r.mu.RUnlock()
	if !ok || current != e {
		return ErrNoActiveSession
	}

	e.lastAction = time.Now()
	return fn(e.sess)
}

// Remove is the sole destruction point for a session. Callers invoke it
// only after the terminal ledger update has been durably applied.
func (r *Registry) Remove(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[playerID]; !ok {
		return false
	}
	delete(r.sessions, playerID)
	return true
}

// Idle returns the players whose sessions have seen no action within
// the window, as of now. The janitor forfeits these through the normal
// terminal path so they are never left dangling.
func (r *Registry) Idle(window time.Duration, now time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []string
	for playerID, e := range r.sessions {
		if now.Sub(e.lastAction) >= window {
			stale = append(stale, playerID)
		}
	}
	return stale
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
