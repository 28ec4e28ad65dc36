package gcs

import (
	"context"
	"os"
	"testing"
	"time"

	gcsstorage "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/novuscrm/syncwork/internal/storage"
	"github.com/novuscrm/syncwork/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

func TestGCSStore_Compliance(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET not set, skipping GCS tests")
	}

	storagetest.Run(t, func() (storage.Adapter, func()) {
		// Application Default Credentials are assumed to be configured and
		// scoped to a project with access to the bucket.
		ctx := context.Background()

		store, err := NewStore(ctx, bucket)
		require.NoError(t, err)

		testPrefix := "gcs-store-test/" + uuid.NewString()
		wrapped := &prefixedStore{Store: store, prefix: testPrefix}

		cleanup := func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			it := store.client.Bucket(bucket).Objects(cleanupCtx, &gcsstorage.Query{Prefix: testPrefix})
			for {
				attrs, err := it.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					t.Logf("warning: failed to list objects during cleanup: %v", err)
					break
				}
				if err := store.client.Bucket(bucket).Object(attrs.Name).Delete(cleanupCtx); err != nil {
					t.Logf("warning: failed to delete object %s: %v", attrs.Name, err)
				}
			}
		}

		return wrapped, cleanup
	})
}

// prefixedStore namespaces Save under a per-test prefix so parallel test
// runs against a shared bucket do not collide, without changing Store's
// production id scheme (projectID/uuid).
type prefixedStore struct {
	*Store
	prefix string
}

func (p *prefixedStore) Save(ctx context.Context, data []byte, filename, projectID string) (string, error) {
	return p.Store.Save(ctx, data, filename, p.prefix+"/"+projectID)
}
