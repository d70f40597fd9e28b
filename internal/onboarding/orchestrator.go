package onboarding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brandforge-app/brandforge/internal/background"
	"github.com/brandforge-app/brandforge/internal/cache"
	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/models"
	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
	"github.com/brandforge-app/brandforge/internal/versioning"
)

// recentWindow bounds how much transcript the extraction pass sees.
const recentWindow = 6

// TurnRequest is one caller message into the wizard.
type TurnRequest struct {
	ProfileID   string
	AuthorID    string
	Message     string
	Step        string
	Attachments []string
}

// Orchestrator drives one wizard turn: it assembles model input from the
// step, transcript and profile snapshot, streams the reply, detects the
// completion marker, runs extraction and schedules persistence after the
// terminal sentinel.
type Orchestrator struct {
	db           core.DbClient
	llm          core.LLMProvider
	embedder     core.EmbeddingProvider
	extractor    *Extractor
	catalog      *steps.Catalog
	ledger       *versioning.Ledger
	snapshots    *cache.SnapshotCache
	tasks        *background.Runner
	log          *logger.Logger
	modelDisplay string
}

func NewOrchestrator(
	db core.DbClient,
	llm core.LLMProvider,
	embedder core.EmbeddingProvider,
	extractor *Extractor,
	catalog *steps.Catalog,
	ledger *versioning.Ledger,
	snapshots *cache.SnapshotCache,
	tasks *background.Runner,
	log *logger.Logger,
	modelDisplay string,
) *Orchestrator {
	return &Orchestrator{
		db:           db,
		llm:          llm,
		embedder:     embedder,
		extractor:    extractor,
		catalog:      catalog,
		ledger:       ledger,
		snapshots:    snapshots,
		tasks:        tasks,
		log:          log.With("component", "onboarding"),
		modelDisplay: modelDisplay,
	}
}

// Catalog exposes the step catalog for progress reads.
func (o *Orchestrator) Catalog() *steps.Catalog {
	return o.catalog
}

// Messages returns the profile's full conversation transcript, oldest first.
func (o *Orchestrator) Messages(ctx context.Context, profileID string) ([]models.OnboardingMessage, error) {
	return o.db.ListOnboardingMessages(ctx, profileID)
}

// Turn validates the request, persists the user message and starts the
// streamed turn. Pre-stream failures return an error and no channel; once a
// channel is returned, all further failures arrive as in-band error events
// and the channel always ends with a done sentinel.
func (o *Orchestrator) Turn(ctx context.Context, req TurnRequest) (<-chan Event, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: empty message", core.ErrValidation)
	}
	stepCfg := o.catalog.Get(req.Step)
	if stepCfg == nil {
		return nil, fmt.Errorf("%w: unknown step %q", core.ErrValidation, req.Step)
	}
	if o.llm == nil {
		return nil, core.ErrServiceUnavailable
	}

	profile, err := o.db.GetProfileByID(ctx, req.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil || profile.UserID != req.AuthorID {
		return nil, fmt.Errorf("%w: profile %s", core.ErrNotFound, req.ProfileID)
	}

	userMsg := &models.OnboardingMessage{
		ID:          uuid.NewString(),
		ProfileID:   req.ProfileID,
		AuthorID:    req.AuthorID,
		Role:        "user",
		Content:     req.Message,
		Step:        req.Step,
		Attachments: req.Attachments,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.db.InsertOnboardingMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	transcript, err := o.db.ListOnboardingMessages(ctx, req.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	snapshot := o.snapshotFor(ctx, profile)
	system := buildSystemPrompt(stepCfg, snapshot, o.contentContext(ctx, req.ProfileID, req.Message), o.catalog.IsTerminal(stepCfg.ID))
	history := toChatHistory(transcript)

	ch := make(chan Event, 16)
	go o.runTurn(ctx, ch, req, stepCfg, system, history)
	return ch, nil
}

func (o *Orchestrator) runTurn(ctx context.Context, ch chan<- Event, req TurnRequest, stepCfg *steps.Config, system string, history []core.ChatMessage) {
	defer close(ch)

	var buf strings.Builder
	usage, err := o.llm.GenerateStream(ctx, system, history, func(delta string) error {
		buf.WriteString(delta)
		select {
		case ch <- Event{Type: EventContent, Content: delta}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		// Partial content is discarded; a failed turn persists nothing.
		o.log.Error("generation failed mid-stream", "profileID", req.ProfileID, "step", stepCfg.ID, "error", err)
		o.emit(ctx, ch, Event{Type: EventError, Err: err.Error()})
		o.emit(ctx, ch, Event{Type: EventDone})
		return
	}

	clean, markerSeen := stripMarker(buf.String())

	if usage != nil {
		o.emit(ctx, ch, Event{Type: EventUsage, Usage: &TurnUsage{
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			TotalCost:    costFor(usage.Model, usage.InputTokens, usage.OutputTokens),
			Model:        usage.Model,
			DisplayName:  o.modelDisplay,
		}})
	}

	advance := ""
	if markerSeen {
		if next := o.catalog.Next(stepCfg.ID); next != "" {
			advance = next
			o.emit(ctx, ch, Event{Type: EventStepAdvance, StepAdvance: next})
		}
	}

	var extracted map[string]any
	if !o.catalog.IsTerminal(stepCfg.ID) {
		recent := recentExchange(history, clean)
		fs, err := o.extractor.Extract(ctx, stepCfg, recent)
		if err != nil {
			// Extraction failures never fail the turn.
			o.log.Warn("extraction failed", "profileID", req.ProfileID, "step", stepCfg.ID, "error", err)
		} else if fs != nil {
			extracted = fs
			o.emit(ctx, ch, Event{Type: EventExtracted, Extracted: fs})
		}
	}

	o.emit(ctx, ch, Event{Type: EventDone})

	// Persistence runs after the terminal sentinel, best effort, on the
	// tracked runner so shutdown and tests can drain it.
	o.tasks.Go("persist-turn", func(taskCtx context.Context) error {
		return o.persistTurn(taskCtx, req, stepCfg, clean, advance, extracted)
	})
}

func (o *Orchestrator) persistTurn(ctx context.Context, req TurnRequest, stepCfg *steps.Config, clean, advance string, extracted map[string]any) error {
	msg := &models.OnboardingMessage{
		ID:        uuid.NewString(),
		ProfileID: req.ProfileID,
		AuthorID:  req.AuthorID,
		Role:      "assistant",
		Content:   clean,
		Step:      stepCfg.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.db.InsertOnboardingMessage(ctx, msg); err != nil {
		return fmt.Errorf("store assistant message: %w", err)
	}

	if advance != "" {
		if err := o.db.UpdateProfileStep(ctx, req.ProfileID, advance); err != nil {
			return fmt.Errorf("advance step: %w", err)
		}
	}

	reason := fmt.Sprintf("Extracted during %s step", stepCfg.Title)
	for field, value := range extracted {
		if _, err := o.ledger.UpdateFieldWithVersion(ctx, req.ProfileID, field, value, versioning.SourceAI, reason); err != nil {
			o.log.Warn("field commit failed", "profileID", req.ProfileID, "field", field, "error", err)
		}
	}
	return nil
}

// emit sends unless the caller is gone.
func (o *Orchestrator) emit(ctx context.Context, ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

// snapshotFor serves the materialized field map, seeding the cache on miss.
func (o *Orchestrator) snapshotFor(ctx context.Context, profile *models.BrandProfile) map[string]string {
	if o.snapshots == nil {
		return profile.Fields
	}
	if snap, ok, err := o.snapshots.Get(ctx, profile.ID); err == nil && ok {
		return snap
	}
	if err := o.snapshots.Set(ctx, profile.ID, profile.Fields); err != nil {
		o.log.Warn("snapshot cache set failed", "profileID", profile.ID, "error", err)
	}
	return profile.Fields
}

// contentContext retrieves chunks of uploaded brand materials relevant to
// the user's message. Retrieval is best effort; prompt assembly proceeds
// without it on any failure.
func (o *Orchestrator) contentContext(ctx context.Context, profileID, query string) string {
	if o.embedder == nil {
		return ""
	}
	vecs, err := o.embedder.EmbedTexts(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		if err != nil {
			o.log.Warn("context embedding failed", "profileID", profileID, "error", err)
		}
		return ""
	}
	chunks, err := o.db.SearchContentChunks(ctx, profileID, vecs[0], 3)
	if err != nil {
		o.log.Warn("context retrieval failed", "profileID", profileID, "error", err)
		return ""
	}
	var sb strings.Builder
	for _, ch := range chunks {
		sb.WriteString(ch.Text)
		sb.WriteString("\n---\n")
	}
	return strings.TrimSuffix(sb.String(), "\n---\n")
}

func toChatHistory(transcript []models.OnboardingMessage) []core.ChatMessage {
	out := make([]core.ChatMessage, 0, len(transcript))
	for _, m := range transcript {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		out = append(out, core.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

// recentExchange returns the tail of the conversation plus the assistant
// reply produced this turn, as extraction input.
func recentExchange(history []core.ChatMessage, clean string) []core.ChatMessage {
	start := len(history) - recentWindow
	if start < 0 {
		start = 0
	}
	recent := make([]core.ChatMessage, 0, recentWindow+1)
	recent = append(recent, history[start:]...)
	recent = append(recent, core.ChatMessage{Role: "model", Content: clean})
	return recent
}
