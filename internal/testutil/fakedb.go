// Package testutil provides in-memory fakes for the persistence and storage
// interfaces so service logic can be tested without Postgres or S3.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brandforge-app/brandforge/internal/fields"
	"github.com/brandforge-app/brandforge/internal/models"
)

// FakeDB is an in-memory DbClient. It mimics the relational store closely
// enough for service tests, including the uniqueness guarantees the real
// schema enforces on version numbers and current revisions.
type FakeDB struct {
	mu sync.Mutex

	Users         map[string]*models.User
	Profiles      map[string]*models.BrandProfile
	Versions      []models.FieldVersion
	Assets        map[string]*models.MediaAsset
	Revisions     []models.MediaRevision
	Messages      []models.OnboardingMessage
	ContentAssets map[string]*models.ContentAsset
	Chunks        []models.ContentChunk

	// FailInsertVersion makes the next InsertFieldVersion fail, for testing
	// write-path error handling.
	FailInsertVersion bool

	seq int
}

func NewFakeDB() *FakeDB {
	return &FakeDB{
		Users:         map[string]*models.User{},
		Profiles:      map[string]*models.BrandProfile{},
		Assets:        map[string]*models.MediaAsset{},
		ContentAssets: map[string]*models.ContentAsset{},
	}
}

// tick returns strictly increasing timestamps so CreatedAt ordering is
// deterministic even within one millisecond.
func (f *FakeDB) tick() time.Time {
	f.seq++
	return time.Unix(0, int64(f.seq)*int64(time.Millisecond)).UTC()
}

func (f *FakeDB) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Users[user.ID] = user
	return nil
}

func (f *FakeDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeDB) CreateProfile(ctx context.Context, p *models.BrandProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	if cp.Fields == nil {
		cp.Fields = map[string]string{}
	}
	f.Profiles[p.ID] = &cp
	return nil
}

func (f *FakeDB) GetProfileByID(ctx context.Context, id string) (*models.BrandProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Fields = map[string]string{}
	for k, v := range p.Fields {
		cp.Fields[k] = v
	}
	return &cp, nil
}

func (f *FakeDB) ListProfilesByUser(ctx context.Context, userID string) ([]models.BrandProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BrandProfile
	for _, p := range f.Profiles {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateProfileField takes the storage column like the real client, but
// keys the in-memory Fields map by logical field name the way profile reads
// return it.
func (f *FakeDB) UpdateProfileField(ctx context.Context, profileID, column, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Profiles[profileID]
	if !ok {
		return fmt.Errorf("profile %s not found", profileID)
	}
	if p.Fields == nil {
		p.Fields = map[string]string{}
	}
	name := column
	for _, d := range fields.All() {
		if d.Column == column {
			name = string(d.Name)
			break
		}
	}
	p.Fields[name] = value
	return nil
}

func (f *FakeDB) UpdateProfileStep(ctx context.Context, profileID, step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Profiles[profileID]
	if !ok {
		return fmt.Errorf("profile %s not found", profileID)
	}
	p.OnboardingStep = step
	return nil
}

func (f *FakeDB) InsertFieldVersion(ctx context.Context, v *models.FieldVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailInsertVersion {
		f.FailInsertVersion = false
		return fmt.Errorf("insert field version: simulated failure")
	}
	for _, ex := range f.Versions {
		if ex.ProfileID == v.ProfileID && ex.Field == v.Field && ex.VersionNumber == v.VersionNumber {
			return fmt.Errorf("duplicate version %d for %s/%s", v.VersionNumber, v.ProfileID, v.Field)
		}
	}
	cp := *v
	cp.CreatedAt = f.tick()
	f.Versions = append(f.Versions, cp)
	return nil
}

func (f *FakeDB) MaxFieldVersion(ctx context.Context, profileID, field string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, v := range f.Versions {
		if v.ProfileID == profileID && v.Field == field && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

func (f *FakeDB) GetFieldVersionByID(ctx context.Context, id string) (*models.FieldVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.Versions {
		if v.ID == id {
			cp := v
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeDB) ListFieldVersions(ctx context.Context, profileID, field string) ([]models.FieldVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FieldVersion
	for _, v := range f.Versions {
		if v.ProfileID == profileID && v.Field == field {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

func (f *FakeDB) ListAllFieldVersions(ctx context.Context, profileID string) ([]models.FieldVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FieldVersion
	for _, v := range f.Versions {
		if v.ProfileID == profileID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeDB) CreateMediaAsset(ctx context.Context, a *models.MediaAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.Assets[a.ID] = &cp
	return nil
}

func (f *FakeDB) GetMediaAssetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.Assets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *FakeDB) ListMediaAssetsByProfile(ctx context.Context, profileID string) ([]models.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MediaAsset
	for _, a := range f.Assets {
		if a.ProfileID == profileID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeDB) InsertMediaRevision(ctx context.Context, r *models.MediaRevision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.IsCurrent {
		for _, ex := range f.Revisions {
			if ex.MediaAssetID == r.MediaAssetID && ex.IsCurrent {
				return fmt.Errorf("asset %s already has a current revision", r.MediaAssetID)
			}
		}
	}
	cp := *r
	cp.CreatedAt = f.tick()
	f.Revisions = append(f.Revisions, cp)
	return nil
}

func (f *FakeDB) CountMediaRevisions(ctx context.Context, assetID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.Revisions {
		if r.MediaAssetID == assetID {
			n++
		}
	}
	return n, nil
}

func (f *FakeDB) ClearCurrentRevision(ctx context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Revisions {
		if f.Revisions[i].MediaAssetID == assetID {
			f.Revisions[i].IsCurrent = false
		}
	}
	return nil
}

func (f *FakeDB) GetMediaRevisionByID(ctx context.Context, id string) (*models.MediaRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Revisions {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeDB) ListMediaRevisions(ctx context.Context, assetID string) ([]models.MediaRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MediaRevision
	for _, r := range f.Revisions {
		if r.MediaAssetID == assetID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RevisionNumber < out[j].RevisionNumber })
	return out, nil
}

func (f *FakeDB) GetCurrentRevision(ctx context.Context, assetID string) (*models.MediaRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Revisions {
		if r.MediaAssetID == assetID && r.IsCurrent {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeDB) InsertOnboardingMessage(ctx context.Context, m *models.OnboardingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	cp.CreatedAt = f.tick()
	f.Messages = append(f.Messages, cp)
	return nil
}

func (f *FakeDB) ListOnboardingMessages(ctx context.Context, profileID string) ([]models.OnboardingMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OnboardingMessage
	for _, m := range f.Messages {
		if m.ProfileID == profileID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeDB) CreateContentAsset(ctx context.Context, a *models.ContentAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.ContentAssets[a.ID] = &cp
	return nil
}

func (f *FakeDB) GetContentAssetByID(ctx context.Context, id string) (*models.ContentAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.ContentAssets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *FakeDB) ListContentAssetsByProfile(ctx context.Context, profileID string) ([]models.ContentAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ContentAsset
	for _, a := range f.ContentAssets {
		if a.ProfileID == profileID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeDB) UpdateContentAssetStatus(ctx context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.ContentAssets[id]
	if !ok {
		return fmt.Errorf("content asset %s not found", id)
	}
	a.Status = status
	return nil
}

func (f *FakeDB) InsertContentChunks(ctx context.Context, chunks []models.ContentChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Chunks = append(f.Chunks, chunks...)
	return nil
}

func (f *FakeDB) SearchContentChunks(ctx context.Context, profileID string, queryVec []float32, limit int) ([]models.ContentChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ContentChunk
	for _, c := range f.Chunks {
		a, ok := f.ContentAssets[c.AssetID]
		if !ok || a.ProfileID != profileID || a.Status != "ready" {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *FakeDB) Close() error { return nil }
