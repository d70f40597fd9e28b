package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandforge-app/brandforge/internal/services"
	"github.com/brandforge-app/brandforge/internal/versioning"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	ledger   *versioning.Ledger
}

func NewProfileHandler(profiles *services.ProfileService, ledger *versioning.Ledger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, ledger: ledger}
}

type createProfileRequest struct {
	Name string `json:"name"`
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", 400)
		return
	}

	p, err := h.profiles.Create(r.Context(), userID, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	out, err := h.profiles.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "profileID"), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type updateFieldRequest struct {
	Value  any    `json:"value"`
	Reason string `json:"reason"`
}

// UpdateField commits a manual field change through the version ledger.
func (h *ProfileHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	profileID := chi.URLParam(r, "profileID")
	field := chi.URLParam(r, "field")

	if _, err := h.profiles.Get(r.Context(), profileID, userID); err != nil {
		respondError(w, err)
		return
	}

	var req updateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", 400)
		return
	}

	v, err := h.ledger.UpdateFieldWithVersion(r.Context(), profileID, field, req.Value, versioning.SourceManual, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// FieldHistory returns one field's versions, oldest first.
func (h *ProfileHandler) FieldHistory(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.ledger.GetFieldHistory(r.Context(), profileID, chi.URLParam(r, "field"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// History returns the cross-field activity feed, most recent first.
func (h *ProfileHandler) History(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.ledger.GetAllHistory(r.Context(), profileID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

type revertFieldRequest struct {
	VersionID string `json:"version_id"`
}

func (h *ProfileHandler) RevertField(w http.ResponseWriter, r *http.Request) {
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

	var req revertFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VersionID == "" {
		http.Error(w, "invalid body", 400)
		return
	}

	v, err := h.ledger.RevertField(r.Context(), profileID, chi.URLParam(r, "field"), req.VersionID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}
