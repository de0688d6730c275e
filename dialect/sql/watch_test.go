package sql

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, threshold string) {
	t.Helper()
	data := "dialect: sqlite\ndsn: file:test.db\nslow_threshold: " + threshold + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
}

func TestConfigWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	writeConfig(t, path, "200ms")
	drv, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer drv.Close()
	stats := NewStatsDriver(drv)

	w, err := NewConfigWatcher(path, stats)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Reload())
	assert.Equal(t, 200*time.Millisecond, stats.SlowThreshold())

	require.NoError(t, os.WriteFile(path, []byte("dialect: oracle\n"), 0o600))
	require.Error(t, w.Reload())
	assert.Equal(t, 200*time.Millisecond, stats.SlowThreshold())
}

func TestConfigWatcherRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	writeConfig(t, path, "200ms")
	drv, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer drv.Close()
	stats := NewStatsDriver(drv)

	w, err := NewConfigWatcher(path, stats)
	require.NoError(t, err)
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeConfig(t, path, "2s")
	require.Eventually(t, func() bool {
		return stats.SlowThreshold() == 2*time.Second
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
