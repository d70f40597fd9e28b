package versioning

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

func newTestLedger(t *testing.T) (*Ledger, *testutil.FakeDB) {
	t.Helper()
	db := testutil.NewFakeDB()
	require.NoError(t, db.CreateProfile(context.Background(), &models.BrandProfile{
		ID:     "p1",
		UserID: "u1",
		Name:   "Acme",
	}))
	return NewLedger(db, nil, logger.NewNop()), db
}

func TestUpdateFieldAssignsSequentialVersions(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	for i, value := range []string{"Acme", "Acme Inc", "Acme Incorporated"} {
		v, err := ledger.UpdateFieldWithVersion(ctx, "p1", "brandName", value, SourceManual, "rename")
		require.NoError(t, err)
		assert.Equal(t, i+1, v.VersionNumber)
		assert.Equal(t, value, v.NewValue)
	}

	// Versions are per (profile, field): a different field starts at 1.
	v, err := ledger.UpdateFieldWithVersion(ctx, "p1", "tagline", "We make things", SourceManual, "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.VersionNumber)
}

func TestUpdateFieldRecordsTransition(t *testing.T) {
	ctx := context.Background()
	ledger, db := newTestLedger(t)

	v1, err := ledger.UpdateFieldWithVersion(ctx, "p1", "mission", "First mission", SourceManual, "")
	require.NoError(t, err)
	assert.Equal(t, "", v1.OldValue)

	v2, err := ledger.UpdateFieldWithVersion(ctx, "p1", "mission", "Second mission", SourceAI, "Extracted during Brand Assessment step")
	require.NoError(t, err)
	assert.Equal(t, "First mission", v2.OldValue)
	assert.Equal(t, "Second mission", v2.NewValue)
	assert.Equal(t, SourceAI, v2.ChangeSource)

	p, err := db.GetProfileByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Second mission", p.Fields["mission"])
}

func TestUpdateFieldEncodesStructuredValues(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	v, err := ledger.UpdateFieldWithVersion(ctx, "p1", "coreValues", []string{"honesty", "craft"}, SourceAI, "")
	require.NoError(t, err)
	assert.JSONEq(t, `["honesty","craft"]`, v.NewValue)
}

func TestUpdateFieldUnknownFieldWritesNothing(t *testing.T) {
	ctx := context.Background()
	ledger, db := newTestLedger(t)

	_, err := ledger.UpdateFieldWithVersion(ctx, "p1", "notAField", "x", SourceManual, "")
	require.ErrorIs(t, err, core.ErrUnknownField)
	assert.Empty(t, db.Versions)

	p, _ := db.GetProfileByID(ctx, "p1")
	assert.Empty(t, p.Fields)
}

func TestUpdateFieldMissingProfile(t *testing.T) {
	ledger, _ := newTestLedger(t)
	_, err := ledger.UpdateFieldWithVersion(context.Background(), "nope", "brandName", "x", SourceManual, "")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestFieldHistoryOrdering(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	_, err := ledger.UpdateFieldWithVersion(ctx, "p1", "brandName", "A", SourceManual, "")
	require.NoError(t, err)
	_, err = ledger.UpdateFieldWithVersion(ctx, "p1", "tagline", "T1", SourceManual, "")
	require.NoError(t, err)
	_, err = ledger.UpdateFieldWithVersion(ctx, "p1", "brandName", "B", SourceManual, "")
	require.NoError(t, err)
	_, err = ledger.UpdateFieldWithVersion(ctx, "p1", "tagline", "T2", SourceAI, "")
	require.NoError(t, err)

	// Per-field history reads forward.
	hist, err := ledger.GetFieldHistory(ctx, "p1", "brandName")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "A", hist[0].NewValue)
	assert.Equal(t, "B", hist[1].NewValue)

	// The activity feed reads backward across all fields.
	all, err := ledger.GetAllHistory(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "T2", all[0].NewValue)
	assert.Equal(t, "B", all[1].NewValue)
	assert.Equal(t, "T1", all[2].NewValue)
	assert.Equal(t, "A", all[3].NewValue)
}

func TestFieldHistoryUnknownField(t *testing.T) {
	ledger, _ := newTestLedger(t)
	_, err := ledger.GetFieldHistory(context.Background(), "p1", "bogus")
	require.ErrorIs(t, err, core.ErrUnknownField)
}

func TestRevertAppendsNewVersion(t *testing.T) {
	ctx := context.Background()
	ledger, db := newTestLedger(t)

	v1, err := ledger.UpdateFieldWithVersion(ctx, "p1", "brandName", "Original", SourceManual, "")
	require.NoError(t, err)
	_, err = ledger.UpdateFieldWithVersion(ctx, "p1", "brandName", "Renamed", SourceManual, "")
	require.NoError(t, err)

	rv, err := ledger.RevertField(ctx, "p1", "brandName", v1.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, rv.VersionNumber)
	assert.Equal(t, "Renamed", rv.OldValue)
	assert.Equal(t, "Original", rv.NewValue)
	assert.Equal(t, SourceManual, rv.ChangeSource)
	assert.Equal(t, "Reverted to version 1", rv.ChangeReason)

	// History is untouched, only extended.
	hist, err := ledger.GetFieldHistory(ctx, "p1", "brandName")
	require.NoError(t, err)
	require.Len(t, hist, 3)

	p, _ := db.GetProfileByID(ctx, "p1")
	assert.Equal(t, "Original", p.Fields["brandName"])
}

func TestRevertRejectsForeignVersion(t *testing.T) {
	ctx := context.Background()
	ledger, db := newTestLedger(t)

	require.NoError(t, db.CreateProfile(ctx, &models.BrandProfile{ID: "p2", UserID: "u2"}))
	other, err := ledger.UpdateFieldWithVersion(ctx, "p2", "brandName", "Other", SourceManual, "")
	require.NoError(t, err)

	// Version belongs to a different profile.
	_, err = ledger.RevertField(ctx, "p1", "brandName", other.ID, "u1")
	require.ErrorIs(t, err, core.ErrNotFound)

	// Version belongs to a different field.
	tv, err := ledger.UpdateFieldWithVersion(ctx, "p1", "tagline", "T", SourceManual, "")
	require.NoError(t, err)
	_, err = ledger.RevertField(ctx, "p1", "brandName", tv.ID, "u1")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = ledger.RevertField(ctx, "p1", "brandName", "missing-id", "u1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestInsertFailureDoesNotMaterialize(t *testing.T) {
	ctx := context.Background()
	ledger, db := newTestLedger(t)

	db.FailInsertVersion = true
	_, err := ledger.UpdateFieldWithVersion(ctx, "p1", "brandName", "X", SourceManual, "")
	require.Error(t, err)

	p, _ := db.GetProfileByID(ctx, "p1")
	assert.Empty(t, p.Fields["brandName"])
	assert.Empty(t, db.Versions)
}
