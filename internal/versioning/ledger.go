package versioning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brandforge-app/brandforge/internal/cache"
	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/fields"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/models"
)

// Change sources recorded on every ledger entry.
const (
	SourceManual = "manual"
	SourceAI     = "ai"
	SourceImport = "import"
)

// Ledger is the append-only field-version log for brand profiles. History is
// immutable: a revert appends a new record, it never touches old rows.
//
// Version allocation is read-max-then-insert across two statements with no
// lock. Concurrent writers to the same (profile, field) can race; the unique
// index on (profile_id, field, version_number) turns that into an insert
// error rather than silent duplicate history.
type Ledger struct {
	db        core.DbClient
	snapshots *cache.SnapshotCache
	log       *logger.Logger
}

func NewLedger(db core.DbClient, snapshots *cache.SnapshotCache, log *logger.Logger) *Ledger {
	return &Ledger{db: db, snapshots: snapshots, log: log.With("component", "versioning")}
}

// AppendVersion allocates the next version number for (profileID, field),
// writes the immutable record, then updates the profile's materialized value
// for that field and drops the cached snapshot.
func (l *Ledger) AppendVersion(ctx context.Context, profileID string, desc fields.Descriptor, oldValue, newValue, source, reason string) (*models.FieldVersion, error) {
	max, err := l.db.MaxFieldVersion(ctx, profileID, string(desc.Name))
	if err != nil {
		return nil, fmt.Errorf("max version for %s: %w", desc.Name, err)
	}

	v := &models.FieldVersion{
		ID:            uuid.NewString(),
		ProfileID:     profileID,
		Field:         string(desc.Name),
		OldValue:      oldValue,
		NewValue:      newValue,
		ChangeSource:  source,
		ChangeReason:  reason,
		VersionNumber: max + 1,
		CreatedAt:     time.Now().UTC(),
	}
	if err := l.db.InsertFieldVersion(ctx, v); err != nil {
		return nil, fmt.Errorf("insert version %d of %s: %w", v.VersionNumber, desc.Name, err)
	}

	if err := l.db.UpdateProfileField(ctx, profileID, desc.Column, newValue); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", desc.Name, err)
	}

	if l.snapshots != nil {
		if err := l.snapshots.Invalidate(ctx, profileID); err != nil {
			l.log.Warn("snapshot invalidation failed", "profileID", profileID, "error", err)
		}
	}

	l.log.Debug("field version appended",
		"profileID", profileID, "field", desc.Name, "version", v.VersionNumber, "source", source)
	return v, nil
}

// UpdateFieldWithVersion validates the field name, reads the current
// materialized value and commits the transition through AppendVersion.
// Unknown field names fail before anything is written.
func (l *Ledger) UpdateFieldWithVersion(ctx context.Context, profileID, field string, newValue any, source, reason string) (*models.FieldVersion, error) {
	desc, ok := fields.Lookup(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownField, field)
	}

	encoded, err := fields.EncodeValue(newValue)
	if err != nil {
		return nil, err
	}

	profile, err := l.db.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile %s", core.ErrNotFound, profileID)
	}

	oldValue := profile.Fields[field]
	return l.AppendVersion(ctx, profileID, desc, oldValue, encoded, source, reason)
}

// GetFieldHistory returns one field's versions ascending by version number.
func (l *Ledger) GetFieldHistory(ctx context.Context, profileID, field string) ([]models.FieldVersion, error) {
	if !fields.Known(field) {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownField, field)
	}
	return l.db.ListFieldVersions(ctx, profileID, field)
}

// GetAllHistory returns every version across fields, most recent first.
// Per-field history reads forward; the cross-field activity feed reads
// backward. The two orders differ on purpose.
func (l *Ledger) GetAllHistory(ctx context.Context, profileID string) ([]models.FieldVersion, error) {
	return l.db.ListAllFieldVersions(ctx, profileID)
}

// RevertField appends a new version carrying the target version's value.
// Target versions belonging to another profile or field are rejected.
func (l *Ledger) RevertField(ctx context.Context, profileID, field, targetVersionID, authorID string) (*models.FieldVersion, error) {
	desc, ok := fields.Lookup(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownField, field)
	}

	target, err := l.db.GetFieldVersionByID(ctx, targetVersionID)
	if err != nil {
		return nil, fmt.Errorf("load target version: %w", err)
	}
	if target == nil || target.ProfileID != profileID || target.Field != field {
		return nil, fmt.Errorf("%w: version %s", core.ErrNotFound, targetVersionID)
	}

	profile, err := l.db.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile %s", core.ErrNotFound, profileID)
	}

	reason := fmt.Sprintf("Reverted to version %d", target.VersionNumber)
	v, err := l.AppendVersion(ctx, profileID, desc, profile.Fields[field], target.NewValue, SourceManual, reason)
	if err != nil {
		return nil, err
	}
	l.log.Info("field reverted",
		"profileID", profileID, "field", field, "targetVersion", target.VersionNumber, "author", authorID)
	return v, nil
}
