package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/storage"
)

func TestLoadEmpty(t *testing.T) {
	idx, err := Load(storage.NewMemory(), DefaultKey)
	require.NoError(t, err)
	_, ok := idx.Get("t-1")
	assert.False(t, ok)
	assert.Empty(t, idx.TaskIDs())
}

func TestSaveOnlyWhenDirty(t *testing.T) {
	backend := storage.NewMemory()
	idx, err := Load(backend, DefaultKey)
	require.NoError(t, err)

	require.NoError(t, idx.Save())
	_, err = backend.Get(DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNoValue)

	idx.Set("t-1", Entry{EventID: "ev-1", Fingerprint: "abc"})
	require.NoError(t, idx.Save())

	reloaded, err := Load(backend, DefaultKey)
	require.NoError(t, err)
	e, ok := reloaded.Get("t-1")
	require.True(t, ok)
	assert.Equal(t, "ev-1", e.EventID)
	assert.Equal(t, "abc", e.Fingerprint)

	reloaded.Remove("t-1")
	require.NoError(t, reloaded.Save())
	again, err := Load(backend, DefaultKey)
	require.NoError(t, err)
	assert.Empty(t, again.TaskIDs())
}

func TestLoadCorrupt(t *testing.T) {
	backend := storage.NewMemory()
	require.NoError(t, backend.Set(DefaultKey, []byte("{")))
	_, err := Load(backend, DefaultKey)
	assert.Error(t, err)
}
