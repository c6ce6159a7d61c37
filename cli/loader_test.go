package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/kestrel/loader"
	"github.com/compozy/kestrel/pkg/config"
)

func TestBuildGitSource(t *testing.T) {
	cfg := config.Default()
	l := loader.New()

	t.Run("Should parse a remote@commit:path spec", func(t *testing.T) {
		src, err := buildGitSource(cfg, "https://example.com/repo.git@abc123:tools", l)
		require.NoError(t, err)
		assert.Equal(t, -1, src.Priority())
	})

	t.Run("Should parse a remote@commit spec with no path", func(t *testing.T) {
		src, err := buildGitSource(cfg, "https://example.com/repo.git@abc123", l)
		require.NoError(t, err)
		assert.NotNil(t, src)
	})

	t.Run("Should reject a spec with no commit separator", func(t *testing.T) {
		_, err := buildGitSource(cfg, "https://example.com/repo.git", l)
		assert.Error(t, err)
	})
}
