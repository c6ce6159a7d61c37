package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	t.Run("Should suggest the nearest enum value for a near-miss", func(t *testing.T) {
		got := For("Ara", []string{"Robb", "Sansa", "Arya"}, 1)
		assert.Equal(t, []string{"Arya"}, got)
	})

	t.Run("Should suggest a near-miss flag spelling", func(t *testing.T) {
		got := For("--abcd", []string{"--abcde"}, 2)
		assert.Equal(t, []string{"--abcde"}, got)
	})

	t.Run("Should return nothing for an empty input or candidate list", func(t *testing.T) {
		assert.Nil(t, For("", []string{"a"}, 2))
		assert.Nil(t, For("a", nil, 2))
	})

	t.Run("Should cap results at MaxResults and rank closest first", func(t *testing.T) {
		got := For("foo", []string{"foo1", "foo12", "foo123", "foo1234", "unrelated"}, 4)
		assert.LessOrEqual(t, len(got), MaxResults)
		assert.Equal(t, "foo1", got[0])
	})
}
