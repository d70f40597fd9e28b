package steps

import (
	"math"

	"github.com/brandforge-app/brandforge/internal/fields"
)

// Step ids in wizard order.
const (
	StepWelcome          = "welcome"
	StepBrandAssessment  = "brand_assessment"
	StepTargetAudience   = "target_audience"
	StepPositioning      = "positioning"
	StepBrandPersonality = "brand_personality"
	StepVisualIdentity   = "visual_identity"
	StepStyleGuide       = "style_guide"
	StepComplete         = "complete"
)

// CompletionMarker is the in-band sentinel the model is instructed to emit
// at the end of its message once a step's goals are met.
const CompletionMarker = "[STEP_COMPLETE]"

// Config describes one wizard step: its prompt and the fields the
// extraction pass may commit while the conversation sits on it.
type Config struct {
	ID                string
	Title             string
	PromptTemplate    string
	ExtractableFields []fields.Field
}

// Catalog is the fixed, ordered step sequence. It is built once at startup
// and passed by reference; nothing mutates it afterwards.
type Catalog struct {
	sequence []Config
	index    map[string]int
}

// NewCatalog returns the default onboarding sequence.
func NewCatalog() *Catalog {
	return newCatalog(defaultSequence)
}

func newCatalog(sequence []Config) *Catalog {
	idx := make(map[string]int, len(sequence))
	for i, s := range sequence {
		idx[s.ID] = i
	}
	return &Catalog{sequence: sequence, index: idx}
}

// Get returns the step config, or nil for unknown ids. Lookups here are
// tolerant: wizard UI code probes freely and treats nil as "not a step".
func (c *Catalog) Get(id string) *Config {
	i, ok := c.index[id]
	if !ok {
		return nil
	}
	cfg := c.sequence[i]
	return &cfg
}

// Next returns the following step id, or "" at the end or for unknown ids.
func (c *Catalog) Next(id string) string {
	i, ok := c.index[id]
	if !ok || i+1 >= len(c.sequence) {
		return ""
	}
	return c.sequence[i+1].ID
}

// Previous returns the preceding step id, or "" at the start or for unknown
// ids. Only the UI uses this; the turn state machine never moves backwards.
func (c *Catalog) Previous(id string) string {
	i, ok := c.index[id]
	if !ok || i == 0 {
		return ""
	}
	return c.sequence[i-1].ID
}

// ProgressPercent maps a step to 0..100 along the sequence; unknown ids are 0.
func (c *Catalog) ProgressPercent(id string) int {
	i, ok := c.index[id]
	if !ok || len(c.sequence) < 2 {
		return 0
	}
	return int(math.Round(100 * float64(i) / float64(len(c.sequence)-1)))
}

// IsTerminal reports whether id is the final step.
func (c *Catalog) IsTerminal(id string) bool {
	i, ok := c.index[id]
	return ok && i == len(c.sequence)-1
}

// First returns the id of the first step.
func (c *Catalog) First() string {
	return c.sequence[0].ID
}

// Len returns the number of steps.
func (c *Catalog) Len() int {
	return len(c.sequence)
}

var defaultSequence = []Config{
	{
		ID:    StepWelcome,
		Title: "Welcome",
		PromptTemplate: `You are a friendly brand strategist guiding a founder through building their brand.
This is the first conversation. Introduce yourself briefly, then learn the basics:
what the business is called, what it does and what industry it operates in.
Ask one question at a time and keep answers conversational.`,
		ExtractableFields: []fields.Field{fields.BrandName, fields.Industry, fields.Tagline},
	},
	{
		ID:    StepBrandAssessment,
		Title: "Brand assessment",
		PromptTemplate: `You are a brand strategist assessing where {{brandName}} stands today.
Explore the company's mission, long-term vision and the values it wants to be known for.
Push for concrete wording the founder would actually put on a wall, not generic platitudes.`,
		ExtractableFields: []fields.Field{fields.Mission, fields.Vision, fields.CoreValues},
	},
	{
		ID:    StepTargetAudience,
		Title: "Target audience",
		PromptTemplate: `You are a brand strategist helping {{brandName}} sharpen who it serves.
Dig into who the ideal customer is: their situation, what they struggle with and
what would make them choose this brand over doing nothing.`,
		ExtractableFields: []fields.Field{fields.TargetAudience},
	},
	{
		ID:    StepPositioning,
		Title: "Positioning",
		PromptTemplate: `You are a brand strategist working on positioning for {{brandName}}.
Contrast the brand against the alternatives its audience considers and pin down the
single claim it can credibly own. Draft a one-sentence positioning statement together.`,
		ExtractableFields: []fields.Field{fields.Positioning},
	},
	{
		ID:    StepBrandPersonality,
		Title: "Brand personality",
		PromptTemplate: `You are a brand strategist defining how {{brandName}} should sound and behave.
Settle on a handful of personality traits and a tone of voice, with examples of
phrases the brand would and would not say.`,
		ExtractableFields: []fields.Field{fields.PersonalityTraits, fields.ToneOfVoice},
	},
	{
		ID:    StepVisualIdentity,
		Title: "Visual identity",
		PromptTemplate: `You are a brand strategist shaping the visual identity of {{brandName}}.
Discuss color directions and typography that fit the personality agreed so far.
Reference any uploaded brand materials when they are relevant.`,
		ExtractableFields: []fields.Field{fields.ColorPalette, fields.Typography},
	},
	{
		ID:    StepStyleGuide,
		Title: "Style guide",
		PromptTemplate: `You are a brand strategist assembling a working style guide for {{brandName}}.
Pull together everything agreed in this conversation into concrete usage rules:
naming, tone, colors, typography, dos and don'ts. Confirm each section with the founder.`,
		ExtractableFields: []fields.Field{fields.StyleGuide},
	},
	{
		ID:    StepComplete,
		Title: "Complete",
		PromptTemplate: `The onboarding wizard is finished. Congratulate the founder on completing
their brand foundation for {{brandName}}, summarize what was captured and point them to
the profile editor for any follow-up changes.`,
		ExtractableFields: nil,
	},
}
