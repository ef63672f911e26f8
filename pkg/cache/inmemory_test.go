package cache_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-booking/pkg/cache"
	"github.com/illmade-knight/go-booking/pkg/query"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		// Arrange
		s := cache.NewInMemoryStore()

		// Act
		_, err := s.Fetch(ctx, "missing")

		// Assert
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("Set, fetch and delete", func(t *testing.T) {
		// Arrange
		s := cache.NewInMemoryStore()
		value := json.RawMessage(`{"slug":"demo"}`)

		// Act
		require.NoError(t, s.Set(ctx, "k", value))
		value[2] = 'X'
		got, err := s.Fetch(ctx, "k")

		// Assert
		require.NoError(t, err)
		assert.JSONEq(t, `{"slug":"demo"}`, string(got))
		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"))
		assert.Zero(t, s.Len())
	})
}

type tenant struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func TestInMemoryStore_PersistAndHydrate(t *testing.T) {
	ctx := context.Background()
	store := cache.NewInMemoryStore()
	key := query.Key{"tenant", "demo"}

	// Arrange: a first client persists a successful read.
	first := query.New(nil, store, nil, zerolog.Nop())
	defer first.Close()
	got, err := query.Get(ctx, first, query.Query[tenant]{
		Key:     key,
		Fetch:   func(context.Context) (tenant, error) { return tenant{Slug: "demo", Name: "Demo Salon"}, nil },
		Options: query.Options{Enabled: true, Persist: true},
	})
	require.NoError(t, err)
	require.Equal(t, "Demo Salon", got.Name)
	require.Eventually(t, func() bool { return store.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	// Act: a second client shows the snapshot while its own fetch is blocked.
	second := query.New(nil, store, nil, zerolog.Nop())
	release := make(chan struct{})
	h := query.Watch(second, query.Query[tenant]{
		Key: key,
		Fetch: func(ctx context.Context) (tenant, error) {
			<-release
			return tenant{Slug: "demo", Name: "Renamed"}, nil
		},
		Options: query.Options{Enabled: true, Persist: true},
	}, func(query.State[tenant]) {})

	// Assert
	require.Eventually(t, func() bool {
		e := h.Entry()
		return e.Status == query.StatusLoading && e.HasData
	}, 2*time.Second, 5*time.Millisecond)
	hydrated := query.StateOf[tenant](h.Entry())
	assert.Equal(t, "Demo Salon", hydrated.Data.Name)

	close(release)
	require.Eventually(t, func() bool { return h.Entry().Status == query.StatusSuccess }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Renamed", query.StateOf[tenant](h.Entry()).Data.Name)

	h.Unsubscribe()
	second.Remove(ctx, key)
	assert.Zero(t, store.Len())
	require.NoError(t, second.Close())
}
