package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// BrandProfile is the version-tracked entity. Fields holds the materialized
// current value per tracked field (canonical text encoding); the full change
// history lives in field_versions.
type BrandProfile struct {
	ID             string            `db:"id" json:"id"`
	UserID         string            `db:"user_id" json:"user_id"`
	Name           string            `db:"name" json:"name"`
	OnboardingStep string            `db:"onboarding_step" json:"onboarding_step"`
	Fields         map[string]string `json:"fields"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// FieldVersion is one immutable record in the append-only version ledger.
type FieldVersion struct {
	ID            string    `db:"id" json:"id"`
	ProfileID     string    `db:"profile_id" json:"profile_id"`
	Field         string    `db:"field" json:"field"`
	OldValue      string    `db:"old_value" json:"old_value"`
	NewValue      string    `db:"new_value" json:"new_value"`
	ChangeSource  string    `db:"change_source" json:"change_source"` // manual | ai | import
	ChangeReason  string    `db:"change_reason" json:"change_reason,omitempty"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// MediaAsset is the parent record for an ordered revision history of one
// piece of binary media (logo, banner, etc).
type MediaAsset struct {
	ID        string    `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Kind      string    `db:"kind" json:"kind"` // logo | banner | image
	FileName  string    `db:"file_name" json:"file_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MediaRevision is one immutable revision of a media asset. At most one
// revision per asset is current.
type MediaRevision struct {
	ID             string            `db:"id" json:"id"`
	MediaAssetID   string            `db:"media_asset_id" json:"media_asset_id"`
	RevisionNumber int               `db:"revision_number" json:"revision_number"`
	ContentRef     string            `db:"content_ref" json:"content_ref"` // S3 URL
	Metadata       map[string]string `db:"metadata" json:"metadata,omitempty"`
	Source         string            `db:"source" json:"source"` // upload | ai | manual
	AuthorID       string            `db:"author_id" json:"author_id"`
	ChangeNote     string            `db:"change_note" json:"change_note,omitempty"`
	IsCurrent      bool              `db:"is_current" json:"is_current"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// OnboardingMessage is one entry of the append-only wizard transcript.
// Ordering by CreatedAt defines conversation order.
type OnboardingMessage struct {
	ID          string    `db:"id" json:"id"`
	ProfileID   string    `db:"profile_id" json:"profile_id"`
	AuthorID    string    `db:"author_id" json:"author_id"`
	Role        string    `db:"role" json:"role"` // "user" or "assistant"
	Content     string    `db:"content" json:"content"`
	Step        string    `db:"step" json:"step"`
	Attachments []string  `db:"attachments" json:"attachments,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ContentAsset represents a user-uploaded supplementary document (brand
// deck, style PDF, ...) whose text is indexed for wizard prompt context.
type ContentAsset struct {
	ID          string    `db:"id" json:"id"`
	ProfileID   string    `db:"profile_id" json:"profile_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StorageURL  string    `db:"storage_url" json:"storage_url"`
	ContentType string    `db:"content_type" json:"content_type"`
	Status      string    `db:"status" json:"status"` // uploaded | processing | ready | failed
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ContentChunk represents one text chunk from a content asset.
type ContentChunk struct {
	ID         string    `db:"id" json:"id"`
	AssetID    string    `db:"asset_id" json:"asset_id"`
	Text       string    `db:"text" json:"text"`
	Embedding  []float32 `db:"embedding" json:"embedding"` // pgvector column
	Position   int       `db:"position" json:"position"`
	TokenCount int       `db:"token_count" json:"token_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
