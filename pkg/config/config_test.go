package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Run("Should provide valid built-in settings", func(t *testing.T) {
		cfg := Default()
		assert.Equal(t, "TOOLS.tool.go", cfg.IndexFileName)
		assert.Equal(t, 2, cfg.SuggestionMaxEditDistance)
		assert.Equal(t, "info", cfg.LogLevel)
		require.NoError(t, NewService().Validate(cfg))
	})
}

func TestManager_Load(t *testing.T) {
	t.Run("Should load defaults when no other provider is given", func(t *testing.T) {
		m := NewManager(nil)
		defer m.Close(context.Background())

		cfg, err := m.Load(context.Background(), NewDefaultProvider())
		require.NoError(t, err)
		assert.Equal(t, Default().IndexFileName, cfg.IndexFileName)
		assert.Equal(t, cfg, m.Get())
	})

	t.Run("Should let a YAML file override defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "kestrel.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nsuggestion_max_edit_distance: 4\n"), 0o600))

		m := NewManager(nil)
		defer m.Close(context.Background())
		cfg, err := m.Load(context.Background(), NewDefaultProvider(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 4, cfg.SuggestionMaxEditDistance)
		assert.Equal(t, Default().IndexFileName, cfg.IndexFileName)
	})

	t.Run("Should read a missing YAML file as empty rather than erroring", func(t *testing.T) {
		m := NewManager(nil)
		defer m.Close(context.Background())
		cfg, err := m.Load(context.Background(), NewDefaultProvider(), NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml")))
		require.NoError(t, err)
		assert.Equal(t, Default().LogLevel, cfg.LogLevel)
	})

	t.Run("Should reject an invalid log level", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "kestrel.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: verbose\n"), 0o600))

		m := NewManager(nil)
		defer m.Close(context.Background())
		_, err := m.Load(context.Background(), NewDefaultProvider(), NewYAMLProvider(path))
		assert.Error(t, err)
	})

	t.Run("Should let a .env file override defaults but not a real environment variable", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("KESTREL_LOG_LEVEL=debug\n"), 0o600))

		m := NewManager(nil)
		defer m.Close(context.Background())
		cfg, err := m.Load(context.Background(), NewDefaultProvider(), NewDotenvProvider(path))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)

		t.Setenv("KESTREL_LOG_LEVEL", "error")
		m2 := NewManager(nil)
		defer m2.Close(context.Background())
		cfg2, err := m2.Load(context.Background(), NewDefaultProvider(), NewDotenvProvider(path), NewEnvProvider())
		require.NoError(t, err)
		assert.Equal(t, "error", cfg2.LogLevel)
	})

	t.Run("Should read a missing .env file as empty rather than erroring", func(t *testing.T) {
		m := NewManager(nil)
		defer m.Close(context.Background())
		cfg, err := m.Load(context.Background(), NewDefaultProvider(), NewDotenvProvider(filepath.Join(t.TempDir(), "nope.env")))
		require.NoError(t, err)
		assert.Equal(t, Default().LogLevel, cfg.LogLevel)
	})

	t.Run("Should let an environment variable override a YAML value", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "kestrel.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))
		t.Setenv("KESTREL_LOG_LEVEL", "error")

		m := NewManager(nil)
		defer m.Close(context.Background())
		cfg, err := m.Load(context.Background(), NewDefaultProvider(), NewYAMLProvider(path), NewEnvProvider())
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
	})
}

func TestManager_Watch(t *testing.T) {
	t.Run("Should reload after the watched file changes", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "kestrel.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

		m := NewManager(nil)
		m.SetDebounce(10 * time.Millisecond)
		defer m.Close(context.Background())

		_, err := m.Load(context.Background(), NewDefaultProvider(), NewYAMLProvider(path))
		require.NoError(t, err)

		errCh, err := m.Watch(context.Background(), path, NewDefaultProvider(), NewYAMLProvider(path))
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))

		require.Eventually(t, func() bool {
			select {
			case err := <-errCh:
				t.Fatalf("unexpected reload error: %v", err)
			default:
			}
			cfg := m.Get()
			return cfg != nil && cfg.LogLevel == "warn"
		}, time.Second, 5*time.Millisecond)
	})
}
