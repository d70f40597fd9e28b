package media

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/models"
)

// Revision sources.
const (
	SourceUpload = "upload"
	SourceAI     = "ai"
	SourceManual = "manual"
)

// Controller tracks an ordered, append-only revision history per media
// asset and keeps exactly one revision current. Reverting re-creates the old
// content as a fresh revision; old rows are never resurrected or mutated.
type Controller struct {
	db      core.DbClient
	storage core.ObjectClient
	bucket  string
	log     *logger.Logger
}

func NewController(db core.DbClient, storage core.ObjectClient, bucket string, log *logger.Logger) *Controller {
	return &Controller{db: db, storage: storage, bucket: bucket, log: log.With("component", "media")}
}

// CreateRevision uploads content and appends it as the new current revision
// of the asset.
func (c *Controller) CreateRevision(ctx context.Context, assetID string, content []byte, contentType, source, authorID, note string) (*models.MediaRevision, error) {
	asset, err := c.db.GetMediaAssetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: media asset %s", core.ErrNotFound, assetID)
	}

	revID := uuid.NewString()
	key := c.objectKey(asset, revID)
	url, err := c.storage.UploadFile(ctx, c.bucket, key, content, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload revision content: %w", err)
	}

	metadata := map[string]string{
		"contentType": contentType,
		"sizeBytes":   strconv.Itoa(len(content)),
	}
	return c.insertRevision(ctx, assetID, revID, url, metadata, source, authorID, note)
}

// RevertToRevision makes an older revision's content current again by
// appending a new revision that points at the same stored content.
func (c *Controller) RevertToRevision(ctx context.Context, revisionID, authorID string) (*models.MediaRevision, error) {
	target, err := c.db.GetMediaRevisionByID(ctx, revisionID)
	if err != nil {
		return nil, fmt.Errorf("load target revision: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: revision %s", core.ErrNotFound, revisionID)
	}

	note := fmt.Sprintf("Reverted to revision %d", target.RevisionNumber)
	return c.insertRevision(ctx, target.MediaAssetID, uuid.NewString(), target.ContentRef, target.Metadata, SourceManual, authorID, note)
}

func (c *Controller) GetRevisions(ctx context.Context, assetID string) ([]models.MediaRevision, error) {
	return c.db.ListMediaRevisions(ctx, assetID)
}

// GetCurrentRevision returns the single current revision, or nil if the
// asset has none yet.
func (c *Controller) GetCurrentRevision(ctx context.Context, assetID string) (*models.MediaRevision, error) {
	return c.db.GetCurrentRevision(ctx, assetID)
}

// insertRevision allocates count+1, clears the previous current pointer and
// inserts the new row as current.
func (c *Controller) insertRevision(ctx context.Context, assetID, revID, contentRef string, metadata map[string]string, source, authorID, note string) (*models.MediaRevision, error) {
	count, err := c.db.CountMediaRevisions(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("count revisions: %w", err)
	}

	if err := c.db.ClearCurrentRevision(ctx, assetID); err != nil {
		return nil, fmt.Errorf("clear current revision: %w", err)
	}

	rev := &models.MediaRevision{
		ID:             revID,
		MediaAssetID:   assetID,
		RevisionNumber: count + 1,
		ContentRef:     contentRef,
		Metadata:       metadata,
		Source:         source,
		AuthorID:       authorID,
		ChangeNote:     note,
		IsCurrent:      true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := c.db.InsertMediaRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("insert revision %d: %w", rev.RevisionNumber, err)
	}

	c.log.Debug("media revision created",
		"assetID", assetID, "revision", rev.RevisionNumber, "source", source)
	return rev, nil
}

// objectKey creates a consistent S3 key layout.
func (c *Controller) objectKey(asset *models.MediaAsset, revID string) string {
	name := strings.ReplaceAll(strings.TrimSpace(asset.FileName), " ", "_")
	return path.Join("profiles", asset.ProfileID, "media", asset.ID, revID, name)
}
