package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_TakePending_NilUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o644))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	assert.Nil(t, w.TakePending())
}

func TestWatcher_TakePending_ReturnsReloadedConfigAfterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o644))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("version: \"2\"\n"), 0o644))

	var cfg *Config
	require.Eventually(t, func() bool {
		cfg = w.TakePending()
		return cfg != nil
	}, 2*time.Second, 10*time.Millisecond, "watcher should surface the reloaded config")
	assert.Equal(t, "2", cfg.Version)

	assert.Nil(t, w.TakePending(), "a second call without a new write must return nil")
}

func TestWatcher_InvalidPath_IsError(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "does-not-exist.yaml"), nil)
	assert.Error(t, err)
}
