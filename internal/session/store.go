// Package session keeps the per-browser state of the widget: the current
// slider values and the observation seeds they are applied to.
package session

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/bayesplot/internal/posterior"
	"github.com/patrickmn/go-cache"
)

// State is the explicit session state threaded through update and
// regenerate. It is a value: callers receive copies.
type State struct {
	ID     string           `json:"id"`
	Params posterior.Params `json:"params"`
	Seeds  posterior.Seeds  `json:"seeds"`
}

// Update returns the state with new parameters applied and its snapshot.
// Seeds are left untouched.
func Update(s State, p posterior.Params) (State, posterior.Snapshot) {
	s.Params = p
	return s, posterior.Compute(s.Params, s.Seeds)
}

// Regenerate returns the state with freshly drawn seeds, replacing the
// previous ones entirely, and its snapshot under the current parameters.
func Regenerate(s State, src rand.Source) (State, posterior.Snapshot) {
	s.Seeds = posterior.RegenerateObservations(src, posterior.MaxObservations)
	return s, posterior.Compute(s.Params, s.Seeds)
}

// Store holds sessions in memory and forgets them after ttl of inactivity.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions *cache.Cache
	ttl      time.Duration
	defaults posterior.Params
	newSrc   func() (rand.Source, error)
}

// NewStore creates a session store. Sessions start with the given default
// parameters and a fresh set of seeds.
func NewStore(ttl time.Duration, defaults posterior.Params) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		sessions: cache.New(ttl, ttl),
		ttl:      ttl,
		defaults: defaults,
		newSrc:   posterior.NewSource,
	}
}

// Create starts a new session.
func (st *Store) Create() (State, error) {
	src, err := st.newSrc()
	if err != nil {
		return State{}, fmt.Errorf("new random source: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return State{}, fmt.Errorf("new session id: %w", err)
	}

	s := State{
		ID:     id.String(),
		Params: st.defaults,
		Seeds:  posterior.RegenerateObservations(src, posterior.MaxObservations),
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions.Set(s.ID, s, st.ttl)
	return s, nil
}

// Get returns the session with the given ID and refreshes its expiry.
func (st *Store) Get(id string) (State, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.getLocked(id)
}

// GetOrCreate returns the existing session for id, or a new one when id is
// empty, unknown or expired.
func (st *Store) GetOrCreate(id string) (State, error) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, nil
		}
	}
	return st.Create()
}

// UpdateParams applies new parameters to a session and returns the
// resulting snapshot.
func (st *Store) UpdateParams(id string, p posterior.Params) (posterior.Snapshot, error) {
	if err := p.Validate(); err != nil {
		return posterior.Snapshot{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.getLocked(id)
	if !ok {
		return posterior.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s, snap := Update(s, p)
	st.sessions.Set(id, s, st.ttl)
	return snap, nil
}

// RegenerateSeeds draws new seeds for a session and returns the resulting
// snapshot under its current parameters.
func (st *Store) RegenerateSeeds(id string) (posterior.Snapshot, error) {
	src, err := st.newSrc()
	if err != nil {
		return posterior.Snapshot{}, fmt.Errorf("new random source: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.getLocked(id)
	if !ok {
		return posterior.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s, snap := Regenerate(s, src)
	st.sessions.Set(id, s, st.ttl)
	return snap, nil
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	return st.sessions.ItemCount()
}

func (st *Store) getLocked(id string) (State, bool) {
	v, ok := st.sessions.Get(id)
	if !ok {
		return State{}, false
	}
	s, ok := v.(State)
	if !ok {
		return State{}, false
	}
	// Sliding expiry.
	st.sessions.Set(id, s, st.ttl)
	return s, true
}
