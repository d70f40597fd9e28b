package services

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brandforge-app/brandforge/internal/content"
	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/models"
)

// ContentService handles supplementary content-asset uploads and hands them
// to the indexer.
type ContentService struct {
	db      core.DbClient
	storage core.ObjectClient
	indexer content.Indexer
	bucket  string
}

func NewContentService(db core.DbClient, storage core.ObjectClient, indexer content.Indexer, bucket string) *ContentService {
	return &ContentService{db: db, storage: storage, indexer: indexer, bucket: bucket}
}

// UploadAndCreate stores the raw bytes, records the asset and enqueues it
// for indexing.
func (s *ContentService) UploadAndCreate(ctx context.Context, profileID, filename, contentType string, data []byte) (*models.ContentAsset, error) {
	assetID := uuid.NewString()
	key := s.objectKey(profileID, assetID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, err
	}

	asset := &models.ContentAsset{
		ID:          assetID,
		ProfileID:   profileID,
		FileName:    filename,
		StorageURL:  url,
		ContentType: contentType,
		Status:      "uploaded",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.db.CreateContentAsset(ctx, asset); err != nil {
		return nil, err
	}

	s.indexer.Enqueue(asset.ID)
	return asset, nil
}

func (s *ContentService) ListByProfile(ctx context.Context, profileID string) ([]models.ContentAsset, error) {
	return s.db.ListContentAssetsByProfile(ctx, profileID)
}

// objectKey creates a consistent S3 key layout.
func (s *ContentService) objectKey(profileID, assetID, filename string) string {
	filename = strings.ReplaceAll(strings.TrimSpace(filename), " ", "_")
	return path.Join("profiles", profileID, "content", assetID, filename)
}
