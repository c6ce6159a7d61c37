package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/kestrel/core/flag"
)

func TestAddFlag(t *testing.T) {
	t.Run("Should synthesize a default spelling from a flag's key", func(t *testing.T) {
		tl := New([]string{"build"})
		f, err := tl.AddFlag("dry_run", nil, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		assert.Contains(t, f.EffectiveFlags(), "--dry-run")
	})

	t.Run("Should report a definition error once the tool is frozen", func(t *testing.T) {
		tl := New([]string{"build"})
		require.NoError(t, tl.FinishDefinition())
		_, err := tl.AddFlag("x", nil, nil, flag.HandlerSet, nil, nil, true)
		assert.Error(t, err)
	})
}

func TestDisableFlag(t *testing.T) {
	t.Run("Should free a flag's spellings for reuse", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("verbose", []string{"-v"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		require.NoError(t, tl.DisableFlag("verbose"))

		_, err = tl.AddFlag("verify", []string{"-v"}, nil, flag.HandlerSet, nil, nil, true)
		assert.NoError(t, err)
	})

	t.Run("Should error when disabling an already-disabled flag", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("verbose", []string{"-v"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		require.NoError(t, tl.DisableFlag("verbose"))
		assert.Error(t, tl.DisableFlag("verbose"))
	})
}

func TestFlagGroups(t *testing.T) {
	t.Run("Should attach declared flags to a new group", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("prod", []string{"--prod"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		_, err = tl.AddFlag("dev", []string{"--dev"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)

		g, err := tl.ExactlyOneGroup("env", "target environment", "prod", "dev")
		require.NoError(t, err)
		assert.Len(t, g.Flags, 2)
	})

	t.Run("Should error when a group references an undefined flag", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.RequiredGroup("env", "", "missing")
		assert.Error(t, err)
	})
}

func TestPositionalArgs(t *testing.T) {
	t.Run("Should reject adding a positional after remaining args is set", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.SetRemainingArgs("rest", nil, "", "", "")
		require.NoError(t, err)
		_, err = tl.AddRequiredArg("name", nil, "", "", "")
		assert.Error(t, err)
	})

	t.Run("Should reject setting remaining args twice", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.SetRemainingArgs("rest", nil, "", "", "")
		require.NoError(t, err)
		_, err = tl.SetRemainingArgs("rest2", nil, "", "", "")
		assert.Error(t, err)
	})
}

func TestDelegateTo(t *testing.T) {
	t.Run("Should refuse to delegate once a run handler is set", func(t *testing.T) {
		tl := New([]string{"b"})
		require.NoError(t, tl.SetRunHandler(func(ctx *Context) error { return nil }))
		assert.Error(t, tl.DelegateTo("build"))
	})

	t.Run("Should refuse to set a run handler once delegated", func(t *testing.T) {
		tl := New([]string{"b"})
		require.NoError(t, tl.DelegateTo("build"))
		assert.Error(t, tl.SetRunHandler(func(ctx *Context) error { return nil }))
	})
}

func TestFinishDefinition(t *testing.T) {
	t.Run("Should be idempotent", func(t *testing.T) {
		tl := New([]string{"build"})
		require.NoError(t, tl.FinishDefinition())
		require.NoError(t, tl.FinishDefinition())
		assert.True(t, tl.DefinitionFinished)
	})

	t.Run("Should run every registered middleware exactly once", func(t *testing.T) {
		tl := New([]string{"build"})
		calls := 0
		require.NoError(t, tl.Use(middlewareFunc(func(t *Tool) error {
			calls++
			return nil
		})))
		require.NoError(t, tl.FinishDefinition())
		require.NoError(t, tl.FinishDefinition())
		assert.Equal(t, 1, calls)
	})

	t.Run("Should sort a group's flags the same way as the tool's own flags", func(t *testing.T) {
		tl := New([]string{"build"})
		_, err := tl.AddFlag("zebra", []string{"-z"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		_, err = tl.AddFlag("alpha", []string{"-a"}, nil, flag.HandlerSet, nil, nil, true)
		require.NoError(t, err)
		g, err := tl.RequiredGroup("", "", "zebra", "alpha")
		require.NoError(t, err)
		require.NoError(t, tl.FinishDefinition())
		require.Len(t, g.Flags, 2)
		assert.Equal(t, "alpha", g.Flags[0].Key)
		assert.Equal(t, "zebra", g.Flags[1].Key)
	})
}

type middlewareFunc func(t *Tool) error

func (f middlewareFunc) Config(t *Tool) error { return f(t) }
