package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brandforge-app/brandforge/internal/onboarding"
	"github.com/brandforge-app/brandforge/internal/services"
)

type OnboardingHandler struct {
	profiles     *services.ProfileService
	orchestrator *onboarding.Orchestrator
}

func NewOnboardingHandler(profiles *services.ProfileService, orchestrator *onboarding.Orchestrator) *OnboardingHandler {
	return &OnboardingHandler{profiles: profiles, orchestrator: orchestrator}
}

type turnRequest struct {
	Message     string   `json:"message"`
	Step        string   `json:"step"`
	Attachments []string `json:"attachments"`
}

// Turn runs one conversation turn and streams its events over SSE. Each
// event is framed as `event: <type>` plus a JSON data payload.
func (h *OnboardingHandler) Turn(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	profileID := chi.URLParam(r, "profileID")

	profile, err := h.profiles.Get(r.Context(), profileID, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", 400)
		return
	}
	if req.Step == "" {
		req.Step = profile.OnboardingStep
	}

	events, err := h.orchestrator.Turn(r.Context(), onboarding.TurnRequest{
		ProfileID:   profileID,
		AuthorID:    userID,
		Message:     req.Message,
		Step:        req.Step,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
		flusher.Flush()
	}
}

// Progress reports where the profile sits in the onboarding sequence.
func (h *OnboardingHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	profileID := chi.URLParam(r, "profileID")

	profile, err := h.profiles.Get(r.Context(), profileID, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	catalog := h.orchestrator.Catalog()
	step := profile.OnboardingStep
	respondJSON(w, http.StatusOK, map[string]any{
		"step":             step,
		"progress_percent": catalog.ProgressPercent(step),
		"next_step":        catalog.Next(step),
		"previous_step":    catalog.Previous(step),
		"complete":         catalog.IsTerminal(step),
	})
}

// Transcript returns the full conversation history for a profile.
func (h *OnboardingHandler) Transcript(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.orchestrator.Messages(r.Context(), profileID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
