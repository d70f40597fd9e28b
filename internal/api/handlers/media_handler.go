package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/media"
	"github.com/brandforge-app/brandforge/internal/models"
	"github.com/brandforge-app/brandforge/internal/services"
)

const maxRevisionUpload = 25 << 20 // 25 MB

type MediaHandler struct {
	db        core.DbClient
	profiles  *services.ProfileService
	revisions *media.Controller
}

func NewMediaHandler(db core.DbClient, profiles *services.ProfileService, revisions *media.Controller) *MediaHandler {
	return &MediaHandler{db: db, profiles: profiles, revisions: revisions}
}

type createAssetRequest struct {
	Kind     string `json:"kind"`
	FileName string `json:"file_name"`
}

func (h *MediaHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	profileID := chi.URLParam(r, "profileID")

	if _, err := h.profiles.Get(r.Context(), profileID, userID); err != nil {
		respondError(w, err)
		return
	}

	var req createAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kind == "" || req.FileName == "" {
		http.Error(w, "kind and file_name are required", 400)
		return
	}

	now := time.Now().UTC()
	asset := &models.MediaAsset{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Kind:      req.Kind,
		FileName:  req.FileName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.db.CreateMediaAsset(r.Context(), asset); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, asset)
}

func (h *MediaHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	profileID := chi.URLParam(r, "profileID")

	if _, err := h.profiles.Get(r.Context(), profileID, userID); err != nil {
		respondError(w, err)
		return
	}

	out, err := h.db.ListMediaAssetsByProfile(r.Context(), profileID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// UploadRevision accepts multipart content and appends it as the asset's new
// current revision.
func (h *MediaHandler) UploadRevision(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	assetID := chi.URLParam(r, "assetID")

	if _, err := h.assetForUser(r, assetID, userID); err != nil {
		respondError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxRevisionUpload); err != nil {
		http.Error(w, "invalid multipart form", 400)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", 400)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxRevisionUpload))
	if err != nil {
		http.Error(w, "failed to read file", 400)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	note := r.FormValue("note")

	rev, err := h.revisions.CreateRevision(r.Context(), assetID, content, contentType, media.SourceUpload, userID, note)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rev)
}

func (h *MediaHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	assetID := chi.URLParam(r, "assetID")

	if _, err := h.assetForUser(r, assetID, userID); err != nil {
		respondError(w, err)
		return
	}

	out, err := h.revisions.GetRevisions(r.Context(), assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *MediaHandler) CurrentRevision(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	assetID := chi.URLParam(r, "assetID")

	if _, err := h.assetForUser(r, assetID, userID); err != nil {
		respondError(w, err)
		return
	}

	rev, err := h.revisions.GetCurrentRevision(r.Context(), assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	if rev == nil {
		respondError(w, core.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

type revertRevisionRequest struct {
	RevisionID string `json:"revision_id"`
}

func (h *MediaHandler) Revert(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	assetID := chi.URLParam(r, "assetID")

	if _, err := h.assetForUser(r, assetID, userID); err != nil {
		respondError(w, err)
		return
	}

	var req revertRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RevisionID == "" {
		http.Error(w, "invalid body", 400)
		return
	}

	target, err := h.db.GetMediaRevisionByID(r.Context(), req.RevisionID)
	if err != nil {
		respondError(w, err)
		return
	}
	if target == nil || target.MediaAssetID != assetID {
		respondError(w, core.ErrNotFound)
		return
	}

	rev, err := h.revisions.RevertToRevision(r.Context(), req.RevisionID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

// assetForUser loads the asset and checks it belongs to one of the caller's
// profiles.
func (h *MediaHandler) assetForUser(r *http.Request, assetID, userID string) (*models.MediaAsset, error) {
	asset, err := h.db.GetMediaAssetByID(r.Context(), assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, core.ErrNotFound
	}
	if _, err := h.profiles.Get(r.Context(), asset.ProfileID, userID); err != nil {
		return nil, err
	}
	return asset, nil
}
