package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rlch/hiveql/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databases:\n  - name: school\n"), 0o600))

	store := catalog.NewStore(nil, nil)

	w, err := catalog.NewWatcher(path, store, zap.NewNop(), catalog.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Reload())
	assert.NotNil(t, store.FindDatabase("school"))

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	done := make(chan error, 1)

	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("databases:\n  - name: warehouse\n"), 0o600))

	assert.Eventually(t, func() bool {
		return store.FindDatabase("warehouse") != nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_KeepsCatalogOnBadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databases: {"), 0o600))

	store := catalog.NewStore(nil, catalog.Sample())

	var reloadErr error

	w, err := catalog.NewWatcher(path, store, nil, catalog.OnReload(func(err error) { reloadErr = err }))
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Close() })

	require.Error(t, w.Reload())
	require.Error(t, reloadErr)
	assert.NotNil(t, store.FindDatabase("school"))
}

func TestWatcher_AppliesFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte("databases:\n  - name: tmp_scratch\n  - name: school\n"), 0o600))

	f, err := catalog.CompileFilter(`not (database startsWith "tmp_")`)
	require.NoError(t, err)

	store := catalog.NewStore(nil, nil)

	w, err := catalog.NewWatcher(path, store, nil, catalog.WithFilter(f))
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Reload())
	assert.Equal(t, []string{"school"}, names(store.ListDatabases(), dbName))
}
