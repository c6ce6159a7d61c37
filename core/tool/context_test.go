package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/kestrel/core/flag"
)

func TestNewContext(t *testing.T) {
	t.Run("Should seed data from defaults, flags, and positionals", func(t *testing.T) {
		tl := New([]string{"build"})
		require.NoError(t, tl.SetDefault("env", "dev"))
		_, err := tl.AddFlag("verbose", []string{"--verbose"}, nil, flag.HandlerSet, nil, false, true)
		require.NoError(t, err)
		_, err = tl.AddRequiredArg("target", nil, "", "", "")
		require.NoError(t, err)

		ctx := NewContext(context.Background(), tl, []string{"build", "app"})
		env, ok := ctx.Get("env")
		assert.True(t, ok)
		assert.Equal(t, "dev", env)

		verbose, ok := ctx.Get("verbose")
		assert.True(t, ok)
		assert.Equal(t, false, verbose)

		_, ok = ctx.Get("target")
		assert.True(t, ok)
	})

	t.Run("Should panic when setting an undeclared key", func(t *testing.T) {
		tl := New([]string{"build"})
		ctx := NewContext(context.Background(), tl, nil)
		assert.Panics(t, func() { ctx.Set("nope", 1) })
	})

	t.Run("Should decode the data bag into a typed struct", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("count", []string{"--count=N"}, nil, flag.HandlerSet, nil, 3, true)
		require.NoError(t, err)

		ctx := NewContext(context.Background(), tl, nil)
		var dst struct {
			Count int `tool:"count"`
		}
		require.NoError(t, ctx.Decode(&dst))
		assert.Equal(t, 3, dst.Count)
	})
}

func TestNewContextFromParsed(t *testing.T) {
	t.Run("Should override defaults with parsed values for declared keys only", func(t *testing.T) {
		tl := New([]string{"build"})
		require.NoError(t, tl.SetDefault("env", "dev"))
		_, err := tl.AddFlag("verbose", []string{"--verbose"}, nil, flag.HandlerSet, nil, false, true)
		require.NoError(t, err)

		parsed := map[string]any{"verbose": true, "env": "prod", "bogus": "dropped"}
		ctx := NewContextFromParsed(context.Background(), tl, parsed, nil)

		verbose, ok := ctx.Get("verbose")
		assert.True(t, ok)
		assert.Equal(t, true, verbose)

		env, ok := ctx.Get("env")
		assert.True(t, ok)
		assert.Equal(t, "prod", env)

		_, ok = ctx.Get("bogus")
		assert.False(t, ok)
	})
}
