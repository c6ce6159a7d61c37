package flag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ShortForms(t *testing.T) {
	t.Run("Should parse a short no-value flag", func(t *testing.T) {
		s, err := Parse("-a")
		require.NoError(t, err)
		assert.Equal(t, "-a", s.PositiveFlag)
		assert.Equal(t, TypeUnresolved, s.FlagType)
	})

	t.Run("Should parse a short required attached value", func(t *testing.T) {
		s, err := Parse("-xLABEL")
		require.NoError(t, err)
		assert.Equal(t, TypeValue, s.FlagType)
		assert.Equal(t, ValueReqRequired, s.ValueReq)
		assert.Equal(t, "", s.ValueDelim)
		assert.Equal(t, "LABEL", s.ValueLabel)
	})

	t.Run("Should parse a short required space value", func(t *testing.T) {
		s, err := Parse("-x LABEL")
		require.NoError(t, err)
		assert.Equal(t, ValueReqRequired, s.ValueReq)
		assert.Equal(t, " ", s.ValueDelim)
	})

	t.Run("Should parse a short optional attached value", func(t *testing.T) {
		s, err := Parse("-x[LABEL]")
		require.NoError(t, err)
		assert.Equal(t, ValueReqOptional, s.ValueReq)
		assert.Equal(t, "LABEL", s.ValueLabel)
	})

	t.Run("Should parse short optional space value in either spacing", func(t *testing.T) {
		a, err := Parse("-x [LABEL]")
		require.NoError(t, err)
		b, err := Parse("-x[ LABEL]")
		require.NoError(t, err)
		assert.Equal(t, ValueReqOptional, a.ValueReq)
		assert.Equal(t, ValueReqOptional, b.ValueReq)
		assert.Equal(t, "LABEL", a.ValueLabel)
		assert.Equal(t, "LABEL", b.ValueLabel)
	})
}

func TestParse_LongForms(t *testing.T) {
	t.Run("Should parse a long no-value flag", func(t *testing.T) {
		s, err := Parse("--aa")
		require.NoError(t, err)
		assert.Equal(t, "--aa", s.PositiveFlag)
		assert.Equal(t, TypeUnresolved, s.FlagType)
	})

	t.Run("Should parse a long required eq value", func(t *testing.T) {
		s, err := Parse("--xyz=LABEL")
		require.NoError(t, err)
		assert.Equal(t, ValueReqRequired, s.ValueReq)
		assert.Equal(t, "=", s.ValueDelim)
	})

	t.Run("Should parse a long required space value", func(t *testing.T) {
		s, err := Parse("--xyz LABEL")
		require.NoError(t, err)
		assert.Equal(t, ValueReqRequired, s.ValueReq)
		assert.Equal(t, " ", s.ValueDelim)
	})

	t.Run("Should parse both long optional eq spellings", func(t *testing.T) {
		a, err := Parse("--xyz=[LABEL]")
		require.NoError(t, err)
		b, err := Parse("--xyz[=LABEL]")
		require.NoError(t, err)
		assert.Equal(t, ValueReqOptional, a.ValueReq)
		assert.Equal(t, ValueReqOptional, b.ValueReq)
	})

	t.Run("Should parse both long optional space spellings", func(t *testing.T) {
		a, err := Parse("--xyz [LABEL]")
		require.NoError(t, err)
		b, err := Parse("--xyz[ LABEL]")
		require.NoError(t, err)
		assert.Equal(t, ValueReqOptional, a.ValueReq)
		assert.Equal(t, ValueReqOptional, b.ValueReq)
	})

	t.Run("Should parse a negatable boolean", func(t *testing.T) {
		s, err := Parse("--[no-]xyz")
		require.NoError(t, err)
		assert.Equal(t, TypeBoolean, s.FlagType)
		assert.Equal(t, "--xyz", s.PositiveFlag)
		assert.Equal(t, "--no-xyz", s.NegativeFlag)
		assert.True(t, s.Flags["--xyz"])
		assert.True(t, s.Flags["--no-xyz"])
	})
}

func TestParse_Errors(t *testing.T) {
	t.Run("Should reject a string with no leading dash", func(t *testing.T) {
		_, err := Parse("xyz")
		assert.Error(t, err)
	})

	t.Run("Should reject a negatable flag that also declares a value", func(t *testing.T) {
		_, err := Parse("--[no-]xyz=LABEL")
		assert.Error(t, err)
	})
}

func TestParse_RoundTrip(t *testing.T) {
	t.Run("Should reparse a canonical form to an identical canonical form", func(t *testing.T) {
		cases := []string{"-xLABEL", "--xyz=LABEL", "--xyz=[LABEL]", "--[no-]xyz", "-a"}
		for _, c := range cases {
			first, err := Parse(c)
			require.NoError(t, err)
			second, err := Parse(first.CanonicalStr)
			require.NoError(t, err)
			assert.Equal(t, first.CanonicalStr, second.CanonicalStr, "round trip for %q", c)
		}
	})
}
