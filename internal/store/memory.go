// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Rounds only ever live in process memory; this is the sole home of a round
// between HTTP requests.
//
// Characteristics:
//   - Stores *game.Round objects keyed by round ID in a map.
//   - Concurrency-safe via RWMutex. game.Round does no locking of its own,
//     so every access to a stored round goes through View or Update.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/findit/internal/game"
)

var ErrNotFound = errors.New("round not found")

// Store defines the holding interface for live rounds.
type Store interface {
	// Save adds or replaces a round.
	Save(ctx context.Context, r *game.Round) error

	// View runs fn with read access to the round.
	// fn must not mutate the round or keep it after returning.
	View(ctx context.Context, id string, fn func(r *game.Round) error) error

	// Update runs fn with exclusive access to the round.
	Update(ctx context.Context, id string, fn func(r *game.Round) error) error

	// Delete drops a round; deleting a missing round is not an error.
	Delete(ctx context.Context, id string) error

	// Prune drops rounds whose current target was drawn before cutoff and
	// returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex           // guards rounds and their contents
	rounds map[string]*game.Round // keyed by Round.ID()
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rounds: make(map[string]*game.Round)}
}

func (m *memory) Save(ctx context.Context, r *game.Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[r.ID()] = r
	return nil
}

func (m *memory) View(ctx context.Context, id string, fn func(r *game.Round) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rounds[id]
	if !ok {
		return ErrNotFound
	}
	return fn(r)
}

func (m *memory) Update(ctx context.Context, id string, fn func(r *game.Round) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[id]
	if !ok {
		return ErrNotFound
	}
	return fn(r)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, id)
	return nil
}

func (m *memory) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.rounds {
		if r.StartedAt().Before(cutoff) {
			delete(m.rounds, id)
			n++
		}
	}
	return n, nil
}
