package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-app/brandforge/internal/testutil"
)

type fakeIndexer struct {
	enqueued []string
}

func (f *fakeIndexer) Start(ctx context.Context, numWorkers int) {}
func (f *fakeIndexer) Enqueue(assetID string)                    { f.enqueued = append(f.enqueued, assetID) }

func TestUploadAndCreateQueuesIndexing(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewFakeDB()
	storage := testutil.NewFakeStorage()
	idx := &fakeIndexer{}
	svc := NewContentService(db, storage, idx, "test-bucket")

	asset, err := svc.UploadAndCreate(ctx, "p1", "brand deck.pdf", "application/pdf", []byte("%PDF-"))
	require.NoError(t, err)

	assert.Equal(t, "uploaded", asset.Status)
	assert.Contains(t, asset.StorageURL, "profiles/p1/content/"+asset.ID)
	assert.Contains(t, asset.StorageURL, "brand_deck.pdf")
	assert.Equal(t, []string{asset.ID}, idx.enqueued)

	// Blob landed under the same key the record references.
	require.Len(t, storage.Objects, 1)

	list, err := svc.ListByProfile(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, asset.ID, list[0].ID)
}
