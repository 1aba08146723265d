package prefabs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c := <-w.Changes:
		return c
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

func TestWatcherReportsPrefabAndScriptChanges(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))

	w, err := NewWatcher(0, dir, scripts)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.yaml"), []byte("name: hero\n"), 0o644))

	c := nextChange(t, w)
	assert.Equal(t, "hero.yaml", c.Name)
	assert.False(t, c.Script)

	for c.Name == "hero.yaml" {
		require.NoError(t, os.WriteFile(filepath.Join(scripts, "combo.tengo"), []byte("result = true"), 0o644))
		c = nextChange(t, w)
	}
	assert.Equal(t, "combo.tengo", c.Name)
	assert.True(t, c.Script)
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(DefaultDebounce, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, open := <-w.Changes
	assert.False(t, open)
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(0, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
