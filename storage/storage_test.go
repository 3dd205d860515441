package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	defer store.Close()

	require.NoError(t, store.Set("campaign_abc", []byte(`{"id":"abc"}`)))

	got, err := store.Get("campaign_abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"abc"}`), got)
}

func TestKVStoreMissingKeyIsNotAnError(t *testing.T) {
	store := NewMemStore()
	defer store.Close()

	got, err := store.Get("no-such-key")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKVStoreLastWriteWins(t *testing.T) {
	store := NewMemStore()
	defer store.Close()

	require.NoError(t, store.Set("k", []byte("first")))
	require.NoError(t, store.Set("k", []byte("second")))

	got, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestKVStoreHas(t *testing.T) {
	store := NewMemStore()
	defer store.Close()

	ok, err := store.Has("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("k", []byte("v")))
	ok, err = store.Has("k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKVStoreIsAvailable(t *testing.T) {
	store := NewMemStore()
	defer store.Close()

	assert.True(t, store.IsAvailable())
}
