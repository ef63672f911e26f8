package idempotency_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-booking/pkg/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		k := idempotency.NewKey()
		require.Len(t, k, idempotency.MaxLength)
		_, err := uuid.Parse(k)
		require.NoError(t, err)
		_, dup := seen[k]
		require.False(t, dup)
		seen[k] = struct{}{}
	}
}

func TestSubmission(t *testing.T) {
	t.Run("Duplicate submits reuse the key", func(t *testing.T) {
		s := idempotency.NewSubmission()

		first := s.Key()
		second := s.Key()

		assert.Equal(t, first, second)
	})

	t.Run("Renew starts a new action", func(t *testing.T) {
		s := idempotency.NewSubmission()
		first := s.Key()

		renewed := s.Renew()

		assert.NotEqual(t, first, renewed)
		assert.Equal(t, renewed, s.Key())
	})

	t.Run("Zero value issues a key lazily", func(t *testing.T) {
		var s idempotency.Submission

		assert.Len(t, s.Key(), idempotency.MaxLength)
	})
}
