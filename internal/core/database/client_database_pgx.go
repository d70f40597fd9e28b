package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/brandforge-app/brandforge/internal/config"
	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/fields"
	"github.com/brandforge-app/brandforge/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for user

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Implementing the db interface for brand profiles.
//
// Tracked fields live as one text column each on brand_profiles; the column
// list always comes from the field registry so the queries and the registry
// cannot drift apart.

func fieldColumns() []string {
	descs := fields.All()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Column
	}
	return cols
}

func (c *DatabaseClient) CreateProfile(ctx context.Context, p *models.BrandProfile) error {
	if p == nil {
		return errors.New("nil profile")
	}
	const q = `
		INSERT INTO brand_profiles (id, user_id, name, onboarding_step, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		p.ID, p.UserID, p.Name, p.OnboardingStep, p.CreatedAt, p.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetProfileByID(ctx context.Context, id string) (*models.BrandProfile, error) {
	cols := fieldColumns()
	q := fmt.Sprintf(`
		SELECT id, user_id, name, onboarding_step, created_at, updated_at, %s
		FROM brand_profiles
		WHERE id = $1
	`, strings.Join(cols, ", "))

	var p models.BrandProfile
	vals := make([]sql.NullString, len(cols))
	dest := []any{&p.ID, &p.UserID, &p.Name, &p.OnboardingStep, &p.CreatedAt, &p.UpdatedAt}
	for i := range vals {
		dest = append(dest, &vals[i])
	}

	err := c.db.QueryRowContext(ctx, q, id).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Fields = make(map[string]string, len(cols))
	for i, d := range fields.All() {
		if vals[i].Valid && vals[i].String != "" {
			p.Fields[string(d.Name)] = vals[i].String
		}
	}
	return &p, nil
}

func (c *DatabaseClient) ListProfilesByUser(ctx context.Context, userID string) ([]models.BrandProfile, error) {
	const q = `
		SELECT id, user_id, name, onboarding_step, created_at, updated_at
		FROM brand_profiles
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BrandProfile
	for rows.Next() {
		var p models.BrandProfile
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.OnboardingStep, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProfileField writes the materialized current value of one tracked
// field. column must come from the field registry; it is never caller input.
func (c *DatabaseClient) UpdateProfileField(ctx context.Context, profileID, column, value string) error {
	q := fmt.Sprintf(`
		UPDATE brand_profiles
		SET %s = $2, updated_at = now()
		WHERE id = $1
	`, column)
	res, err := c.db.ExecContext(ctx, q, profileID, value)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("profile not found: %s", profileID)
	}
	return nil
}

func (c *DatabaseClient) UpdateProfileStep(ctx context.Context, profileID, step string) error {
	const q = `
		UPDATE brand_profiles
		SET onboarding_step = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, profileID, step)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("profile not found: %s", profileID)
	}
	return nil
}

// Implementing the db interface for the version ledger

func (c *DatabaseClient) InsertFieldVersion(ctx context.Context, v *models.FieldVersion) error {
	if v == nil {
		return errors.New("nil field version")
	}
	const q = `
		INSERT INTO field_versions
			(id, profile_id, field, old_value, new_value, change_source, change_reason, version_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		v.ID, v.ProfileID, v.Field, v.OldValue, v.NewValue, v.ChangeSource, v.ChangeReason, v.VersionNumber, v.CreatedAt)
	return err
}

func (c *DatabaseClient) MaxFieldVersion(ctx context.Context, profileID, field string) (int, error) {
	const q = `
		SELECT COALESCE(MAX(version_number), 0)
		FROM field_versions
		WHERE profile_id = $1 AND field = $2
	`
	var n int
	if err := c.db.QueryRowContext(ctx, q, profileID, field).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *DatabaseClient) GetFieldVersionByID(ctx context.Context, id string) (*models.FieldVersion, error) {
	const q = `
		SELECT id, profile_id, field, old_value, new_value, change_source, change_reason, version_number, created_at
		FROM field_versions
		WHERE id = $1
	`
	var v models.FieldVersion
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&v.ID, &v.ProfileID, &v.Field, &v.OldValue, &v.NewValue, &v.ChangeSource, &v.ChangeReason, &v.VersionNumber, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *DatabaseClient) ListFieldVersions(ctx context.Context, profileID, field string) ([]models.FieldVersion, error) {
	const q = `
		SELECT id, profile_id, field, old_value, new_value, change_source, change_reason, version_number, created_at
		FROM field_versions
		WHERE profile_id = $1 AND field = $2
		ORDER BY version_number ASC
	`
	return c.scanFieldVersions(ctx, q, profileID, field)
}

func (c *DatabaseClient) ListAllFieldVersions(ctx context.Context, profileID string) ([]models.FieldVersion, error) {
	const q = `
		SELECT id, profile_id, field, old_value, new_value, change_source, change_reason, version_number, created_at
		FROM field_versions
		WHERE profile_id = $1
		ORDER BY created_at DESC
	`
	return c.scanFieldVersions(ctx, q, profileID)
}

func (c *DatabaseClient) scanFieldVersions(ctx context.Context, q string, args ...any) ([]models.FieldVersion, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FieldVersion
	for rows.Next() {
		var v models.FieldVersion
		if err := rows.Scan(
			&v.ID, &v.ProfileID, &v.Field, &v.OldValue, &v.NewValue, &v.ChangeSource, &v.ChangeReason, &v.VersionNumber, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Implementing the db interface for media assets and revisions

func (c *DatabaseClient) CreateMediaAsset(ctx context.Context, a *models.MediaAsset) error {
	if a == nil {
		return errors.New("nil media asset")
	}
	const q = `
		INSERT INTO media_assets (id, profile_id, kind, file_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		a.ID, a.ProfileID, a.Kind, a.FileName, a.CreatedAt, a.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetMediaAssetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	const q = `
		SELECT id, profile_id, kind, file_name, created_at, updated_at
		FROM media_assets
		WHERE id = $1
	`
	var a models.MediaAsset
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.ProfileID, &a.Kind, &a.FileName, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *DatabaseClient) ListMediaAssetsByProfile(ctx context.Context, profileID string) ([]models.MediaAsset, error) {
	const q = `
		SELECT id, profile_id, kind, file_name, created_at, updated_at
		FROM media_assets
		WHERE profile_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MediaAsset
	for rows.Next() {
		var a models.MediaAsset
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.Kind, &a.FileName, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) InsertMediaRevision(ctx context.Context, r *models.MediaRevision) error {
	if r == nil {
		return errors.New("nil media revision")
	}
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal revision metadata: %w", err)
	}
	const q = `
		INSERT INTO media_revisions
			(id, media_asset_id, revision_number, content_ref, metadata, source, author_id, change_note, is_current, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		r.ID, r.MediaAssetID, r.RevisionNumber, r.ContentRef, meta, r.Source, r.AuthorID, r.ChangeNote, r.IsCurrent, r.CreatedAt)
	return err
}

func (c *DatabaseClient) CountMediaRevisions(ctx context.Context, assetID string) (int, error) {
	const q = `SELECT COUNT(*) FROM media_revisions WHERE media_asset_id = $1`
	var n int
	if err := c.db.QueryRowContext(ctx, q, assetID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *DatabaseClient) ClearCurrentRevision(ctx context.Context, assetID string) error {
	const q = `UPDATE media_revisions SET is_current = FALSE WHERE media_asset_id = $1 AND is_current = TRUE`
	_, err := c.db.ExecContext(ctx, q, assetID)
	return err
}

func (c *DatabaseClient) GetMediaRevisionByID(ctx context.Context, id string) (*models.MediaRevision, error) {
	const q = `
		SELECT id, media_asset_id, revision_number, content_ref, metadata, source, author_id, change_note, is_current, created_at
		FROM media_revisions
		WHERE id = $1
	`
	row := c.db.QueryRowContext(ctx, q, id)
	r, err := scanMediaRevision(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (c *DatabaseClient) ListMediaRevisions(ctx context.Context, assetID string) ([]models.MediaRevision, error) {
	const q = `
		SELECT id, media_asset_id, revision_number, content_ref, metadata, source, author_id, change_note, is_current, created_at
		FROM media_revisions
		WHERE media_asset_id = $1
		ORDER BY revision_number ASC
	`
	rows, err := c.db.QueryContext(ctx, q, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MediaRevision
	for rows.Next() {
		r, err := scanMediaRevision(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) GetCurrentRevision(ctx context.Context, assetID string) (*models.MediaRevision, error) {
	const q = `
		SELECT id, media_asset_id, revision_number, content_ref, metadata, source, author_id, change_note, is_current, created_at
		FROM media_revisions
		WHERE media_asset_id = $1 AND is_current = TRUE
	`
	row := c.db.QueryRowContext(ctx, q, assetID)
	r, err := scanMediaRevision(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanMediaRevision(scan func(dest ...any) error) (*models.MediaRevision, error) {
	var (
		r    models.MediaRevision
		meta []byte
	)
	if err := scan(
		&r.ID, &r.MediaAssetID, &r.RevisionNumber, &r.ContentRef, &meta, &r.Source, &r.AuthorID, &r.ChangeNote, &r.IsCurrent, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal revision metadata: %w", err)
		}
	}
	return &r, nil
}

// Implementing the db interface for the onboarding transcript

func (c *DatabaseClient) InsertOnboardingMessage(ctx context.Context, m *models.OnboardingMessage) error {
	if m == nil {
		return errors.New("nil onboarding message")
	}
	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}
	const q = `
		INSERT INTO onboarding_messages (id, profile_id, author_id, role, content, step, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		m.ID, m.ProfileID, m.AuthorID, m.Role, m.Content, m.Step, attachments, m.CreatedAt)
	return err
}

func (c *DatabaseClient) ListOnboardingMessages(ctx context.Context, profileID string) ([]models.OnboardingMessage, error) {
	const q = `
		SELECT id, profile_id, author_id, role, content, step, attachments, created_at
		FROM onboarding_messages
		WHERE profile_id = $1
		ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OnboardingMessage
	for rows.Next() {
		var (
			m           models.OnboardingMessage
			attachments []byte
		)
		if err := rows.Scan(
			&m.ID, &m.ProfileID, &m.AuthorID, &m.Role, &m.Content, &m.Step, &attachments, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
				return nil, fmt.Errorf("unmarshal attachments: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Implementing the db interface for content assets and chunks

func (c *DatabaseClient) CreateContentAsset(ctx context.Context, a *models.ContentAsset) error {
	if a == nil {
		return errors.New("nil content asset")
	}
	const q = `
		INSERT INTO content_assets (id, profile_id, file_name, storage_url, content_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()), COALESCE($8, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		a.ID, a.ProfileID, a.FileName, a.StorageURL, a.ContentType, a.Status, a.CreatedAt, a.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetContentAssetByID(ctx context.Context, id string) (*models.ContentAsset, error) {
	const q = `
		SELECT id, profile_id, file_name, storage_url, content_type, status, created_at, updated_at
		FROM content_assets
		WHERE id = $1
	`
	var a models.ContentAsset
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.ProfileID, &a.FileName, &a.StorageURL, &a.ContentType, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *DatabaseClient) ListContentAssetsByProfile(ctx context.Context, profileID string) ([]models.ContentAsset, error) {
	const q = `
		SELECT id, profile_id, file_name, storage_url, content_type, status, created_at, updated_at
		FROM content_assets
		WHERE profile_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ContentAsset
	for rows.Next() {
		var a models.ContentAsset
		if err := rows.Scan(
			&a.ID, &a.ProfileID, &a.FileName, &a.StorageURL, &a.ContentType, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateContentAssetStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE content_assets
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("content asset not found: %s", id)
	}
	return nil
}

// InsertContentChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertContentChunks(ctx context.Context, chunks []models.ContentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO content_chunks
			(id, asset_id, position, text, embedding, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.AssetID, ch.Position, ch.Text, vec, ch.TokenCount, ch.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchContentChunks finds top-k similar chunks across a profile's ready
// content assets for a query embedding.
func (c *DatabaseClient) SearchContentChunks(ctx context.Context, profileID string, queryVec []float32, limit int) ([]models.ContentChunk, error) {
	const q = `
		SELECT ch.id, ch.asset_id, ch.position, ch.text, ch.embedding, ch.token_count
		FROM content_chunks ch
		JOIN content_assets a ON a.id = ch.asset_id
		WHERE a.profile_id = $1 AND a.status = 'ready'
		ORDER BY ch.embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, profileID, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ContentChunk
	for rows.Next() {
		var (
			ch  models.ContentChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.AssetID, &ch.Position, &ch.Text, &emb, &ch.TokenCount); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}
