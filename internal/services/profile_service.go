package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brandforge-app/brandforge/internal/cache"
	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/models"
	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
)

// ProfileService owns brand profile CRUD and snapshot reads. Field writes go
// through the version ledger, never through this service.
type ProfileService struct {
	db        core.DbClient
	snapshots *cache.SnapshotCache
}

func NewProfileService(db core.DbClient, snapshots *cache.SnapshotCache) *ProfileService {
	return &ProfileService{db: db, snapshots: snapshots}
}

func (s *ProfileService) Create(ctx context.Context, userID, name string) (*models.BrandProfile, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: profile name required", core.ErrValidation)
	}
	p := &models.BrandProfile{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           name,
		OnboardingStep: steps.StepWelcome,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.db.CreateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get loads a profile and enforces ownership. A profile owned by someone
// else reads as not found.
func (s *ProfileService) Get(ctx context.Context, id, userID string) (*models.BrandProfile, error) {
	p, err := s.db.GetProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, fmt.Errorf("%w: profile %s", core.ErrNotFound, id)
	}
	return p, nil
}

func (s *ProfileService) ListByUser(ctx context.Context, userID string) ([]models.BrandProfile, error) {
	return s.db.ListProfilesByUser(ctx, userID)
}

// Snapshot serves the materialized field map through the cache.
func (s *ProfileService) Snapshot(ctx context.Context, id, userID string) (map[string]string, error) {
	if s.snapshots != nil {
		if snap, ok, err := s.snapshots.Get(ctx, id); err == nil && ok {
			return snap, nil
		}
	}
	p, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if s.snapshots != nil {
		_ = s.snapshots.Set(ctx, id, p.Fields)
	}
	return p.Fields, nil
}
