package core

import (
	"context"
	"io"

	"github.com/brandforge-app/brandforge/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreateProfile(ctx context.Context, p *models.BrandProfile) error
	GetProfileByID(ctx context.Context, id string) (*models.BrandProfile, error)
	ListProfilesByUser(ctx context.Context, userID string) ([]models.BrandProfile, error)
	UpdateProfileField(ctx context.Context, profileID, column, value string) error
	UpdateProfileStep(ctx context.Context, profileID, step string) error

	InsertFieldVersion(ctx context.Context, v *models.FieldVersion) error
	MaxFieldVersion(ctx context.Context, profileID, field string) (int, error)
	GetFieldVersionByID(ctx context.Context, id string) (*models.FieldVersion, error)
	ListFieldVersions(ctx context.Context, profileID, field string) ([]models.FieldVersion, error)
	ListAllFieldVersions(ctx context.Context, profileID string) ([]models.FieldVersion, error)

	CreateMediaAsset(ctx context.Context, a *models.MediaAsset) error
	GetMediaAssetByID(ctx context.Context, id string) (*models.MediaAsset, error)
	ListMediaAssetsByProfile(ctx context.Context, profileID string) ([]models.MediaAsset, error)
	InsertMediaRevision(ctx context.Context, r *models.MediaRevision) error
	CountMediaRevisions(ctx context.Context, assetID string) (int, error)
	ClearCurrentRevision(ctx context.Context, assetID string) error
	GetMediaRevisionByID(ctx context.Context, id string) (*models.MediaRevision, error)
	ListMediaRevisions(ctx context.Context, assetID string) ([]models.MediaRevision, error)
	GetCurrentRevision(ctx context.Context, assetID string) (*models.MediaRevision, error)

	InsertOnboardingMessage(ctx context.Context, m *models.OnboardingMessage) error
	ListOnboardingMessages(ctx context.Context, profileID string) ([]models.OnboardingMessage, error)

	CreateContentAsset(ctx context.Context, a *models.ContentAsset) error
	GetContentAssetByID(ctx context.Context, id string) (*models.ContentAsset, error)
	ListContentAssetsByProfile(ctx context.Context, profileID string) ([]models.ContentAsset, error)
	UpdateContentAssetStatus(ctx context.Context, id string, status string) error
	InsertContentChunks(ctx context.Context, chunks []models.ContentChunk) error
	SearchContentChunks(ctx context.Context, profileID string, queryVec []float32, limit int) ([]models.ContentChunk, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so AWS can be replaced with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
