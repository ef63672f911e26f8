// Package mutation coordinates single-shot writes and the cache effects that
// follow them.
package mutation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Status is the lifecycle state of a mutation.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Func performs the write.
type Func[V, R any] func(ctx context.Context, vars V) (R, error)

// State is the observable state of the most recent invocation.
type State[V, R any] struct {
	Status       Status
	Data         R
	Err          error
	Variables    V
	HasVariables bool
	RunID        string
}

// IsPending reports whether the most recent invocation has not settled.
func (s State[V, R]) IsPending() bool { return s.Status == StatusPending }

// Mutation runs Func and, on success, its effects. It is safe for concurrent use.
// Overlapping Run calls are independent; State follows the latest invocation.
type Mutation[V, R any] struct {
	name    string
	fn      Func[V, R]
	effects []Effect[V, R]
	logger  zerolog.Logger

	mu           sync.Mutex
	state        State[V, R]
	listeners    map[int]func(State[V, R])
	nextListener int
}

// New creates a mutation. name identifies it in logs.
func New[V, R any](name string, fn Func[V, R], logger zerolog.Logger, effects ...Effect[V, R]) *Mutation[V, R] {
	return &Mutation[V, R]{
		name:      name,
		fn:        fn,
		effects:   effects,
		logger:    logger.With().Str("component", "Mutation").Str("mutation", name).Logger(),
		listeners: make(map[int]func(State[V, R])),
	}
}

// Run executes the write. On success every effect has completed before Run
// returns. The error of the write is returned verbatim.
func (m *Mutation[V, R]) Run(ctx context.Context, vars V) (R, error) {
	runID := ulid.Make().String()
	m.update(func(s *State[V, R]) bool {
		*s = State[V, R]{Status: StatusPending, Variables: vars, HasVariables: true, RunID: runID}
		return true
	})
	log := m.logger.With().Str("run_id", runID).Logger()
	log.Debug().Msg("Mutation started.")

	result, err := m.fn(ctx, vars)
	if err != nil {
		log.Debug().Err(err).Msg("Mutation failed.")
		m.settle(runID, func(s *State[V, R]) {
			s.Status = StatusError
			s.Err = err
		})
		return result, err
	}

	if err := m.runEffects(ctx, result, vars); err != nil {
		log.Warn().Err(err).Msg("Mutation succeeded but an effect failed.")
	}
	m.settle(runID, func(s *State[V, R]) {
		s.Status = StatusSuccess
		s.Data = result
	})
	log.Debug().Msg("Mutation succeeded.")
	return result, nil
}

// State returns the state of the most recent invocation.
func (m *Mutation[V, R]) State() State[V, R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset returns the mutation to idle. A pending invocation keeps running but
// no longer updates the state.
func (m *Mutation[V, R]) Reset() {
	m.update(func(s *State[V, R]) bool {
		*s = State[V, R]{}
		return true
	})
}

// OnChange registers fn for every state change and returns a function that
// removes it. fn may be called from any goroutine.
func (m *Mutation[V, R]) OnChange(fn func(State[V, R])) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextListener++
	id := m.nextListener
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Mutation[V, R]) settle(runID string, apply func(*State[V, R])) {
	m.update(func(s *State[V, R]) bool {
		if s.RunID != runID {
			return false
		}
		apply(s)
		return true
	})
}

func (m *Mutation[V, R]) update(apply func(*State[V, R]) bool) {
	m.mu.Lock()
	if !apply(&m.state) {
		m.mu.Unlock()
		return
	}
	state := m.state
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]func(State[V, R]), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (m *Mutation[V, R]) runEffects(ctx context.Context, result R, vars V) error {
	var g errgroup.Group
	for i, effect := range m.effects {
		g.Go(func() error {
			if err := effect(ctx, result, vars); err != nil {
				return fmt.Errorf("effect %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
