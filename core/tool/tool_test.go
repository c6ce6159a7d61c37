package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/kestrel/core/accept"
	"github.com/compozy/kestrel/core/flag"
)

func TestResolveFlag(t *testing.T) {
	t.Run("Should resolve an exact long spelling", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("verbose", []string{"--verbose"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)

		res, matches, _ := tl.ResolveFlag("--verbose")
		assert.Equal(t, ResolutionUnique, res)
		require.Len(t, matches, 1)
		assert.Equal(t, "verbose", matches[0].Key)
	})

	t.Run("Should resolve an unambiguous prefix", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("verbose", []string{"--verbose"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)

		res, matches, _ := tl.ResolveFlag("--verb")
		assert.Equal(t, ResolutionUnique, res)
		require.Len(t, matches, 1)
	})

	t.Run("Should report ambiguity across two candidate prefixes", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("verbose", []string{"--verbose"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		_, err = tl.AddFlag("version", []string{"--version"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)

		res, matches, _ := tl.ResolveFlag("--ver")
		assert.Equal(t, ResolutionMultiple, res)
		assert.Len(t, matches, 2)
	})

	t.Run("Should not allow prefix matching when exact match is required", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("verbose", []string{"--verbose"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		require.NoError(t, tl.RequireExactFlagMatch())

		res, _, _ := tl.ResolveFlag("--verb")
		assert.Equal(t, ResolutionNotFound, res)
	})

	t.Run("Should resolve a negatable flag's negative spelling", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("cache", []string{"--[no-]cache"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)

		res, _, negative := tl.ResolveFlag("--no-cache")
		assert.Equal(t, ResolutionUnique, res)
		assert.True(t, negative)
	})
}

func TestAncestorLookup(t *testing.T) {
	t.Run("Should fall through to a parent's acceptor when not locally defined", func(t *testing.T) {
		parent := New([]string{})
		require.NoError(t, parent.AddAcceptor("port", accept.Range("port", 1, 65535, nil)))
		child := New([]string{"serve"})
		child.Parent = parent

		a, ok := child.LookupAcceptor("port")
		require.True(t, ok)
		assert.Equal(t, "port", a.TypeDesc())
	})

	t.Run("Should prefer a closer definition over an ancestor's", func(t *testing.T) {
		parent := New([]string{})
		require.NoError(t, parent.AddAcceptor("port", accept.Range("parent-port", 1, 65535, nil)))
		child := New([]string{"serve"})
		child.Parent = parent
		require.NoError(t, child.AddAcceptor("port", accept.Range("child-port", 1, 1024, nil)))

		a, ok := child.LookupAcceptor("port")
		require.True(t, ok)
		assert.Equal(t, "child-port", a.TypeDesc())
	})

	t.Run("Should fall back to a well-known acceptor when nothing is registered", func(t *testing.T) {
		tl := New([]string{"build"})
		a, ok := tl.LookupAcceptor("integer")
		require.True(t, ok)
		assert.Equal(t, "integer", a.TypeDesc())
	})
}

func TestIsRunnable(t *testing.T) {
	t.Run("Should be runnable once a run handler is set", func(t *testing.T) {
		tl := New([]string{"build"})
		assert.False(t, tl.IsRunnable())
		require.NoError(t, tl.SetRunHandler(func(ctx *Context) error { return nil }))
		assert.True(t, tl.IsRunnable())
	})

	t.Run("Should be runnable via delegation alone", func(t *testing.T) {
		tl := New([]string{"b"})
		require.NoError(t, tl.DelegateTo("build"))
		assert.True(t, tl.IsRunnable())
		assert.True(t, tl.IsDelegate())
	})
}
