package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandforge-app/brandforge/internal/services"
)

const maxContentUpload = 50 << 20 // 50 MB

type ContentHandler struct {
	profiles *services.ProfileService
	content  *services.ContentService
}

func NewContentHandler(profiles *services.ProfileService, content *services.ContentService) *ContentHandler {
	return &ContentHandler{profiles: profiles, content: content}
}

// Upload stores a reference document and queues it for indexing.
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(maxContentUpload); err != nil {
		http.Error(w, "invalid multipart form", 400)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", 400)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxContentUpload))
	if err != nil {
		http.Error(w, "failed to read file", 400)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	asset, err := h.content.UploadAndCreate(r.Context(), profileID, header.Filename, contentType, data)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, asset)
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.content.ListByProfile(r.Context(), profileID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
