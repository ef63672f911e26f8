package mutation

import (
	"context"

	"github.com/illmade-knight/go-booking/pkg/query"
)

// Effect runs after a successful write. Effects of one mutation run
// concurrently; use Sequence when order matters.
type Effect[V, R any] func(ctx context.Context, result R, vars V) error

// Invalidate invalidates every prefix returned by keys.
func Invalidate[V, R any](c *query.Client, keys func(result R, vars V) []query.Key) Effect[V, R] {
	return func(_ context.Context, result R, vars V) error {
		for _, k := range keys(result, vars) {
			c.Invalidate(k)
		}
		return nil
	}
}

// InvalidateKeys invalidates fixed prefixes.
func InvalidateKeys[V, R any](c *query.Client, prefixes ...query.Key) Effect[V, R] {
	return Invalidate[V, R](c, func(R, V) []query.Key { return prefixes })
}

// Remove discards fixed prefixes, subscribed or not.
func Remove[V, R any](c *query.Client, prefixes ...query.Key) Effect[V, R] {
	return func(ctx context.Context, _ R, _ V) error {
		for _, k := range prefixes {
			c.Remove(ctx, k)
		}
		return nil
	}
}

// Prime writes data derived from the result directly into the cache under key.
func Prime[V, R any](c *query.Client, key query.Key, data func(result R, vars V) any) Effect[V, R] {
	return func(_ context.Context, result R, vars V) error {
		c.SetData(key, data(result, vars))
		return nil
	}
}

// Sequence runs effects one after another and stops at the first error.
func Sequence[V, R any](effects ...Effect[V, R]) Effect[V, R] {
	return func(ctx context.Context, result R, vars V) error {
		for _, effect := range effects {
			if err := effect(ctx, result, vars); err != nil {
				return err
			}
		}
		return nil
	}
}
