package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing blob", func(t *testing.T) {
		_, err := store.Open(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put then open", func(t *testing.T) {
		payload := []byte("hello voxel world")
		require.NoError(t, store.Put(ctx, "greeting", payload))

		b, err := store.Open(ctx, "greeting")
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, int64(len(payload)), b.Size())

		got := make([]byte, len(payload))
		n, err := b.ReadAt(ctx, got, 0)
		require.NoError(t, err)
		assert.Equal(t, len(payload), n)
		assert.Equal(t, payload, got)
	})

	t.Run("ranged reads", func(t *testing.T) {
		b, err := store.Open(ctx, "greeting")
		require.NoError(t, err)
		defer b.Close()

		mid := make([]byte, 5)
		_, err = b.ReadAt(ctx, mid, 6)
		require.NoError(t, err)
		assert.Equal(t, "voxel", string(mid))

		past := make([]byte, 64)
		_, err = b.ReadAt(ctx, past, b.Size())
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "greeting", []byte("short")))

		b, err := store.Open(ctx, "greeting")
		require.NoError(t, err)
		defer b.Close()
		assert.Equal(t, int64(5), b.Size())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "greeting"))
		_, err := store.Open(ctx, "greeting")
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting a missing blob is not an error.
		require.NoError(t, store.Delete(ctx, "greeting"))
	})
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore_AtomicPut(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "data", []byte("payload")))

	// No temp residue after a successful put.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data", entries[0].Name())
}

func TestLocalStore_NestedNames(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "surveys/2026/grid", []byte("x")))
	_, err := os.Stat(filepath.Join(dir, "surveys", "2026", "grid"))
	require.NoError(t, err)

	b, err := store.Open(ctx, "surveys/2026/grid")
	require.NoError(t, err)
	require.NoError(t, b.Close())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payload := []byte("original")
	require.NoError(t, store.Put(ctx, "blob", payload))
	payload[0] = 'X'

	b, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer b.Close()

	got := make([]byte, 8)
	_, err = b.ReadAt(ctx, got, 0)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got), "store must copy on put")

	assert.True(t, store.Exists("blob"))
	assert.False(t, store.Exists("other"))
}
