package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("outlook", "copenhagen", "osm-1", "2", "30")
	b := Key("outlook", "copenhagen", "osm-1", "2", "30")
	c := Key("outlook", "copenhagen", "osm-1", "3", "30")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Minute)
	require.NoError(t, err)

	key := Key("outlook", "test")
	_, ok := store.Get(key)
	assert.False(t, ok)

	require.NoError(t, store.Put(key, []byte(`{"hello":"sun"}`)))

	entry, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"hello":"sun"}`), entry.Payload)
	assert.WithinDuration(t, time.Now().UTC(), entry.SavedAtUTC, 5*time.Second)
	assert.Less(t, entry.Age(time.Now().UTC()), 5*time.Second)
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), time.Minute)
	require.NoError(t, err)

	key := Key("outlook", "overwrite")
	require.NoError(t, store.Put(key, []byte("first")))
	require.NoError(t, store.Put(key, []byte("second")))

	entry, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), entry.Payload)
}

func TestFileStorePutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, time.Minute)
	require.NoError(t, err)

	key := Key("outlook", "atomic")
	require.NoError(t, store.Put(key, []byte("first")))
	require.NoError(t, store.Put(key, []byte("second")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key+".json", entries[0].Name())
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir, time.Minute)
	require.NoError(t, err)
	key := Key("outlook", "restart")
	require.NoError(t, store.Put(key, []byte("persisted")))

	reopened, err := NewFileStore(dir, time.Minute)
	require.NoError(t, err)

	entry, ok := reopened.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), entry.Payload)
	assert.Equal(t, key, entry.Key)
}
