package flag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BasicBoolean(t *testing.T) {
	t.Run("Should build a boolean flag from two plain spellings", func(t *testing.T) {
		used := map[string]bool{}
		f, err := New("a", []string{"-a", "--aa"}, nil, HandlerSet, nil, nil, used, true)
		require.NoError(t, err)
		assert.True(t, f.Active)
		assert.Equal(t, TypeBoolean, f.FlagType)
		assert.ElementsMatch(t, []string{"-a", "--aa"}, f.EffectiveFlags())
		assert.True(t, used["-a"])
		assert.True(t, used["--aa"])
	})
}

func TestNew_SynthesizedLongFlag(t *testing.T) {
	t.Run("Should synthesize --key-kebab-case when no syntax given", func(t *testing.T) {
		used := map[string]bool{}
		f, err := New("my_key", nil, nil, HandlerSet, nil, nil, used, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"--my-key"}, f.EffectiveFlags())
	})
}

func TestNew_TypeConflict(t *testing.T) {
	t.Run("Should reject combining boolean and value syntax", func(t *testing.T) {
		used := map[string]bool{}
		_, err := New("x", []string{"--[no-]x", "--x=LABEL"}, nil, HandlerSet, nil, nil, used, true)
		assert.Error(t, err)
	})

	t.Run("Should reject combining required and optional value syntax", func(t *testing.T) {
		used := map[string]bool{}
		_, err := New("x", []string{"-xLABEL", "--x=[LABEL]"}, nil, HandlerSet, nil, nil, used, true)
		assert.Error(t, err)
	})
}

func TestNew_Collisions(t *testing.T) {
	t.Run("Should error when report_collisions is true", func(t *testing.T) {
		used := map[string]bool{"-a": true}
		_, err := New("a", []string{"-a"}, nil, HandlerSet, nil, nil, used, true)
		assert.Error(t, err)
	})

	t.Run("Should drop the colliding syntax element when report_collisions is false", func(t *testing.T) {
		used := map[string]bool{"-a": true}
		f, err := New("a", []string{"-a", "--aa"}, nil, HandlerSet, nil, nil, used, false)
		require.NoError(t, err)
		assert.True(t, f.Active)
		assert.Equal(t, []string{"--aa"}, f.EffectiveFlags())
	})

	t.Run("Should become inactive when every syntax element collides", func(t *testing.T) {
		used := map[string]bool{"-a": true}
		f, err := New("a", []string{"-a"}, nil, HandlerSet, nil, nil, used, false)
		require.NoError(t, err)
		assert.False(t, f.Active)
	})
}

func TestNew_PushHandlerDefaultsToEmptyList(t *testing.T) {
	t.Run("Should default to an empty list accumulator", func(t *testing.T) {
		used := map[string]bool{}
		f, err := New("a", []string{"-a LABEL"}, nil, HandlerPush, nil, nil, used, true)
		require.NoError(t, err)
		assert.Equal(t, []any{}, f.Default)
	})
}

func TestNew_CanonicalStrRecomputedAfterResolution(t *testing.T) {
	t.Run("Should carry the resolved value label onto an unresolved short spelling", func(t *testing.T) {
		used := map[string]bool{}
		f, err := New("out", []string{"-o", "--out=FILE"}, nil, HandlerSet, nil, nil, used, true)
		require.NoError(t, err)
		require.Len(t, f.Syntax, 2)
		short := f.Syntax[0]
		assert.Equal(t, TypeValue, short.FlagType)
		assert.Equal(t, "FILE", short.ValueLabel)
		assert.Equal(t, "-oFILE", short.CanonicalStr)
	})

	t.Run("Should leave an unresolved spelling's canonical string as boolean when the flag resolves boolean", func(t *testing.T) {
		used := map[string]bool{}
		f, err := New("v", []string{"-v", "--[no-]v"}, nil, HandlerSet, nil, nil, used, true)
		require.NoError(t, err)
		short := f.Syntax[0]
		assert.Equal(t, TypeBoolean, short.FlagType)
		assert.Equal(t, "-v", short.CanonicalStr)
	})
}

func TestFlag_ApplyHandler(t *testing.T) {
	t.Run("Should push onto an accumulator", func(t *testing.T) {
		f := &Flag{HandlerKind: HandlerPush}
		next := f.ApplyHandler("b", []any{"a"})
		assert.Equal(t, []any{"a", "b"}, next)
	})

	t.Run("Should overwrite for SET", func(t *testing.T) {
		f := &Flag{HandlerKind: HandlerSet}
		assert.Equal(t, "new", f.ApplyHandler("new", "old"))
	})

	t.Run("Should apply a custom handler", func(t *testing.T) {
		f := &Flag{HandlerKind: HandlerCustom, CustomHandlerFn: func(n, c any) any {
			return c.(int) + n.(int)
		}}
		assert.Equal(t, 3, f.ApplyHandler(1, 2))
	})
}
