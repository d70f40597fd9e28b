package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/models"
	"github.com/brandforge-app/brandforge/internal/testutil"
)

func newTestController(t *testing.T) (*Controller, *testutil.FakeDB, *testutil.FakeStorage) {
	t.Helper()
	db := testutil.NewFakeDB()
	storage := testutil.NewFakeStorage()
	require.NoError(t, db.CreateMediaAsset(context.Background(), &models.MediaAsset{
		ID:        "a1",
		ProfileID: "p1",
		Kind:      "logo",
		FileName:  "logo final.png",
	}))
	return NewController(db, storage, "test-bucket", logger.NewNop()), db, storage
}

func TestCreateRevisionNumbersSequentially(t *testing.T) {
	ctx := context.Background()
	c, _, storage := newTestController(t)

	r1, err := c.CreateRevision(ctx, "a1", []byte("v1"), "image/png", SourceUpload, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, r1.RevisionNumber)
	assert.True(t, r1.IsCurrent)
	assert.Contains(t, r1.ContentRef, "profiles/p1/media/a1/")
	assert.Contains(t, r1.ContentRef, "logo_final.png")

	r2, err := c.CreateRevision(ctx, "a1", []byte("v2"), "image/png", SourceUpload, "u1", "tweaked colors")
	require.NoError(t, err)
	assert.Equal(t, 2, r2.RevisionNumber)

	// Both blobs are kept; revisions never overwrite content.
	assert.Len(t, storage.Objects, 2)
}

func TestCreateRevisionUnknownAsset(t *testing.T) {
	c, _, _ := newTestController(t)
	_, err := c.CreateRevision(context.Background(), "missing", []byte("x"), "image/png", SourceUpload, "u1", "")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestSingleCurrentRevision(t *testing.T) {
	ctx := context.Background()
	c, db, _ := newTestController(t)

	for _, content := range []string{"v1", "v2", "v3"} {
		_, err := c.CreateRevision(ctx, "a1", []byte(content), "image/png", SourceUpload, "u1", "")
		require.NoError(t, err)
	}

	current := 0
	for _, r := range db.Revisions {
		if r.IsCurrent {
			current++
		}
	}
	assert.Equal(t, 1, current)

	cur, err := c.GetCurrentRevision(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, 3, cur.RevisionNumber)
}

func TestRevertCreatesFreshRevision(t *testing.T) {
	ctx := context.Background()
	c, db, _ := newTestController(t)

	r1, err := c.CreateRevision(ctx, "a1", []byte("v1"), "image/png", SourceUpload, "u1", "")
	require.NoError(t, err)
	_, err = c.CreateRevision(ctx, "a1", []byte("v2"), "image/png", SourceAI, "u1", "generated variant")
	require.NoError(t, err)

	rv, err := c.RevertToRevision(ctx, r1.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, rv.RevisionNumber)
	assert.Equal(t, r1.ContentRef, rv.ContentRef)
	assert.Equal(t, SourceManual, rv.Source)
	assert.Equal(t, "Reverted to revision 1", rv.ChangeNote)
	assert.True(t, rv.IsCurrent)

	// Old rows are never resurrected.
	old, err := db.GetMediaRevisionByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsCurrent)

	list, err := c.GetRevisions(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRevertUnknownRevision(t *testing.T) {
	c, _, _ := newTestController(t)
	_, err := c.RevertToRevision(context.Background(), "missing", "u1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetCurrentRevisionEmptyAsset(t *testing.T) {
	c, _, _ := newTestController(t)
	cur, err := c.GetCurrentRevision(context.Background(), "a1")
	require.NoError(t, err)
	assert.Nil(t, cur)
}
