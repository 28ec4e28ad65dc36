package fs

import (
	"os"
	"testing"

	"github.com/novuscrm/syncwork/internal/storage"
	"github.com/novuscrm/syncwork/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func TestFSStore_Compliance(t *testing.T) {
	storagetest.Run(t, func() (storage.Adapter, func()) {
		tmpDir, err := os.MkdirTemp("", "fs-store-test-*")
		require.NoError(t, err)

		store, err := NewStore(tmpDir)
		require.NoError(t, err)

		cleanup := func() {
			os.RemoveAll(tmpDir)
		}

		return store, cleanup
	})
}
