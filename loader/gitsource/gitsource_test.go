package gitsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/kestrel/core/tool"
	"github.com/compozy/kestrel/loader"
)

// fakeFetcher stands in for a real git clone: it just writes the requested
// script files directly into dest, so tests never touch the network.
type fakeFetcher struct {
	calls int
}

func (f *fakeFetcher) Fetch(remote, commit, dest string) error {
	f.calls++
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "build.tool.go"), []byte("// placeholder"), 0o644)
}

func TestGitSourceFetchesOnce(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{}
	evaluator := loader.NewGoBuilderEvaluator()

	src := New("https://example.test/repo.git", "", "deadbeef", dir, 0, fetcher, evaluator)
	evaluator.RegisterScript(
		filepath.Join(src.checkoutDir(), "build.tool.go"),
		func(t *tool.Tool, l *loader.Loader) error {
			return t.SetRunHandler(func(*tool.Context) error { return nil })
		},
	)

	l := loader.New()
	l.AddSource(src)

	t.Run("Should resolve the fetched tool", func(t *testing.T) {
		got, remaining, err := l.Lookup([]string{"build"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, remaining)
	})

	t.Run("Should not re-fetch on a second lookup", func(t *testing.T) {
		_, _, err := l.Lookup([]string{"build"})
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.calls)
	})
}

func TestGitSourceCheckoutDirIsPerCommit(t *testing.T) {
	dir := t.TempDir()
	a := New("https://example.test/repo.git", "", "aaaa", dir, 0, &fakeFetcher{}, nil)
	b := New("https://example.test/repo.git", "", "bbbb", dir, 0, &fakeFetcher{}, nil)
	assert.NotEqual(t, a.checkoutDir(), b.checkoutDir())
}
