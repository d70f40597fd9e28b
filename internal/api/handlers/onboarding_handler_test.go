package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-app/brandforge/internal/background"
	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/models"
	"github.com/brandforge-app/brandforge/internal/onboarding"
	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
	"github.com/brandforge-app/brandforge/internal/services"
	"github.com/brandforge-app/brandforge/internal/testutil"
	"github.com/brandforge-app/brandforge/internal/versioning"
)

// streamOnceLLM emits a fixed reply as a single delta.
type streamOnceLLM struct {
	reply      string
	extraction string
}

func (s *streamOnceLLM) GenerateStream(ctx context.Context, system string, history []core.ChatMessage, onDelta func(string) error) (*core.Usage, error) {
	if err := onDelta(s.reply); err != nil {
		return nil, err
	}
	return &core.Usage{InputTokens: 10, OutputTokens: 5, Model: "gemini-1.5-pro"}, nil
}

func (s *streamOnceLLM) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	if s.extraction == "" {
		return "{}", nil
	}
	return s.extraction, nil
}

func newOnboardingRouter(t *testing.T, llm core.LLMProvider) (*chi.Mux, *testutil.FakeDB, *background.Runner) {
	t.Helper()
	db := testutil.NewFakeDB()
	require.NoError(t, db.CreateProfile(context.Background(), &models.BrandProfile{
		ID: "p1", UserID: "u1", Name: "Acme", OnboardingStep: steps.StepWelcome,
	}))

	log := logger.NewNop()
	tasks := background.NewRunner(log, 5*time.Second)
	catalog := steps.NewCatalog()
	ledger := versioning.NewLedger(db, nil, log)
	orch := onboarding.NewOrchestrator(db, llm, nil, onboarding.NewExtractor(llm, log), catalog, ledger, nil, tasks, log, "Test Model")
	svc := services.NewProfileService(db, nil)
	h := NewOnboardingHandler(svc, orch)

	r := chi.NewRouter()
	r.Post("/api/profiles/{profileID}/onboarding/turn", h.Turn)
	r.Get("/api/profiles/{profileID}/onboarding/progress", h.Progress)
	r.Get("/api/profiles/{profileID}/onboarding/messages", h.Transcript)
	return r, db, tasks
}

// sseEventTypes pulls the event names out of a raw SSE body in order.
func sseEventTypes(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "event: ") {
			out = append(out, strings.TrimPrefix(line, "event: "))
		}
	}
	return out
}

func TestTurnEndpointStreamsSSE(t *testing.T) {
	router, db, tasks := newOnboardingRouter(t, &streamOnceLLM{
		reply: "Welcome aboard. " + steps.CompletionMarker,
	})

	w := doJSON(t, router, http.MethodPost, "/api/profiles/p1/onboarding/turn", "u1",
		map[string]any{"message": "Hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	types := sseEventTypes(w.Body.String())
	require.NotEmpty(t, types)
	assert.Equal(t, "content", types[0])
	assert.Contains(t, types, "step_advance")
	assert.Equal(t, "done", types[len(types)-1])

	// Each frame carries a JSON payload.
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if strings.HasPrefix(line, "data: ") {
			var ev map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tasks.Drain(ctx))

	p, _ := db.GetProfileByID(context.Background(), "p1")
	assert.Equal(t, steps.StepBrandAssessment, p.OnboardingStep)
}

func TestTurnEndpointValidation(t *testing.T) {
	router, _, _ := newOnboardingRouter(t, &streamOnceLLM{reply: "hi"})

	// Empty message -> 400 before any streaming starts.
	w := doJSON(t, router, http.MethodPost, "/api/profiles/p1/onboarding/turn", "u1",
		map[string]any{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown explicit step -> 400.
	w = doJSON(t, router, http.MethodPost, "/api/profiles/p1/onboarding/turn", "u1",
		map[string]any{"message": "hi", "step": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Foreign profile -> 404.
	w = doJSON(t, router, http.MethodPost, "/api/profiles/p1/onboarding/turn", "u2",
		map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgressEndpoint(t *testing.T) {
	router, db, _ := newOnboardingRouter(t, &streamOnceLLM{reply: "hi"})
	require.NoError(t, db.UpdateProfileStep(context.Background(), "p1", steps.StepPositioning))

	w := doJSON(t, router, http.MethodGet, "/api/profiles/p1/onboarding/progress", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Step            string `json:"step"`
		ProgressPercent int    `json:"progress_percent"`
		NextStep        string `json:"next_step"`
		PreviousStep    string `json:"previous_step"`
		Complete        bool   `json:"complete"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, steps.StepPositioning, out.Step)
	assert.Equal(t, steps.StepBrandPersonality, out.NextStep)
	assert.Equal(t, steps.StepTargetAudience, out.PreviousStep)
	assert.False(t, out.Complete)
	assert.Greater(t, out.ProgressPercent, 0)
	assert.Less(t, out.ProgressPercent, 100)
}

func TestTranscriptEndpoint(t *testing.T) {
	router, db, tasks := newOnboardingRouter(t, &streamOnceLLM{reply: "Nice to meet you."})

	w := doJSON(t, router, http.MethodPost, "/api/profiles/p1/onboarding/turn", "u1",
		map[string]any{"message": "Hello"})
	require.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tasks.Drain(ctx))
	_ = db

	w = doJSON(t, router, http.MethodGet, "/api/profiles/p1/onboarding/messages", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var msgs []models.OnboardingMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}
