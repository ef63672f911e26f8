package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// State is the typed view of an Entry.
type State[T any] struct {
	Key       Key
	Status    Status
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
}

// IsLoading, IsSuccess and IsError mirror the status for view code.
func (s State[T]) IsLoading() bool { return s.Status == StatusLoading }
func (s State[T]) IsSuccess() bool { return s.Status == StatusSuccess }
func (s State[T]) IsError() bool   { return s.Status == StatusError }

// StateOf converts an untyped entry. Data of an unexpected type is left zero.
func StateOf[T any](e Entry) State[T] {
	s := State[T]{
		Key:       e.Key,
		Status:    e.Status,
		Err:       e.Err,
		UpdatedAt: e.UpdatedAt,
	}
	if e.HasData {
		if v, ok := e.Data.(T); ok {
			s.Data = v
			s.HasData = true
		}
	}
	return s
}

// Query binds a key to a typed fetch function and its options.
type Query[T any] struct {
	Key     Key
	Fetch   func(ctx context.Context) (T, error)
	Options Options
}

func (q Query[T]) fetcher() Fetcher {
	return func(ctx context.Context) (any, error) {
		return q.Fetch(ctx)
	}
}

func (q Query[T]) options() Options {
	opts := q.Options
	opts.decode = func(raw []byte) (any, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return opts
}

// Watch subscribes to q and calls fn with every typed state transition.
func Watch[T any](c *Client, q Query[T], fn func(State[T])) *Handle {
	return c.Subscribe(q.Key, q.fetcher(), q.options(), func(e Entry) {
		fn(StateOf[T](e))
	})
}

// Get subscribes to q, waits for a settled result and unsubscribes. A cached
// success is returned without a network call.
func Get[T any](ctx context.Context, c *Client, q Query[T]) (T, error) {
	var zero T
	if !q.Options.Enabled {
		return zero, fmt.Errorf("query %s is disabled", q.Key)
	}

	settled := make(chan Entry, 1)
	var once sync.Once
	h := c.Subscribe(q.Key, q.fetcher(), q.options(), func(e Entry) {
		if e.Status == StatusSuccess || e.Status == StatusError {
			once.Do(func() { settled <- e })
		}
	})
	defer h.Unsubscribe()

	select {
	case e := <-settled:
		if e.Status == StatusError {
			return zero, e.Err
		}
		state := StateOf[T](e)
		return state.Data, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
