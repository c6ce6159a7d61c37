package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return Default when no manager is present", func(t *testing.T) {
		cfg := FromContext(context.Background())
		assert.Equal(t, Default(), cfg)
	})

	t.Run("Should return the manager's loaded settings once present", func(t *testing.T) {
		m := NewManager(nil)
		defer m.Close(context.Background())
		loaded, err := m.Load(context.Background(), NewDefaultProvider())
		require.NoError(t, err)

		ctx := ContextWithManager(context.Background(), m)
		assert.Equal(t, loaded, FromContext(ctx))
	})

	t.Run("Should fall back to Default when the manager has not loaded yet", func(t *testing.T) {
		m := NewManager(nil)
		defer m.Close(context.Background())
		ctx := ContextWithManager(context.Background(), m)
		assert.Equal(t, Default(), FromContext(ctx))
	})
}
