// Package storagetest runs a standard compliance suite against any
// storage.Adapter implementation, exercising the byte-oriented Read/Save/
// Delete/Exists contract against both the filesystem and GCS backends.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/novuscrm/syncwork/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises the common Adapter contract. setup returns a fresh adapter
// and a teardown func called after each subtest.
func Run(t *testing.T, setup func() (storage.Adapter, func())) {
	t.Run("SaveAndRead", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		content := []byte("hello world")
		id, err := store.Save(ctx, content, "greeting.txt", "project-1")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := store.Read(ctx, id)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(content, got))
	})

	t.Run("ReadMissingIsErrNotExist", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		_, err := store.Read(ctx, "does-not-exist")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrNotExist))
	})

	t.Run("ExistsReflectsSaveAndDelete", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		missing, err := store.Exists(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, missing)

		id, err := store.Save(ctx, []byte("x"), "f.txt", "project-1")
		require.NoError(t, err)

		present, err := store.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, present)

		require.NoError(t, store.Delete(ctx, id))

		present, err = store.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, present)
	})

	t.Run("DeleteMissingIsNotAnError", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		assert.NoError(t, store.Delete(ctx, "never-existed"))
	})

	t.Run("DistinctSavesGetDistinctIDs", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		id1, err := store.Save(ctx, []byte("one"), "a.txt", "project-1")
		require.NoError(t, err)
		id2, err := store.Save(ctx, []byte("two"), "b.txt", "project-1")
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)
	})
}
