package positional

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Should default DisplayName to Key and Acceptor to default", func(t *testing.T) {
		arg := New("name", Required, nil, nil, "", "", "")
		require.NotNil(t, arg.Acceptor)
		assert.Equal(t, "name", arg.DisplayName)
	})

	t.Run("Should keep an explicit display name and default", func(t *testing.T) {
		arg := New("name", Optional, nil, "x", "desc", "long", "Name")
		assert.Equal(t, "Name", arg.DisplayName)
		assert.Equal(t, "x", arg.Default)
	})
}
