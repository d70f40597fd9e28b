package onboarding

// EventType discriminates the discrete events of one streamed turn.
type EventType string

const (
	EventContent     EventType = "content"
	EventUsage       EventType = "usage"
	EventStepAdvance EventType = "step_advance"
	EventExtracted   EventType = "brand_data_extracted"
	EventError       EventType = "error"
	EventDone        EventType = "done"
)

// TurnUsage is the final token/cost accounting for a turn, computed from the
// provider's own usage totals.
type TurnUsage struct {
	InputTokens  int32   `json:"input_tokens"`
	OutputTokens int32   `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
	Model        string  `json:"model"`
	DisplayName  string  `json:"display_name"`
}

// Event is one element of a turn's output sequence. Within a turn the caller
// sees: content deltas in generation order, then at most one usage, at most
// one step advance, at most one extraction result, at most one error, and
// exactly one done sentinel, in that relative order.
type Event struct {
	Type        EventType      `json:"type"`
	Content     string         `json:"content,omitempty"`
	Usage       *TurnUsage     `json:"usage,omitempty"`
	StepAdvance string         `json:"step_advance,omitempty"`
	Extracted   map[string]any `json:"brand_data_extracted,omitempty"`
	Err         string         `json:"error,omitempty"`
}

// modelPrice is USD per one million tokens.
type modelPrice struct {
	Input  float64
	Output float64
}

var modelPricing = map[string]modelPrice{
	"gemini-1.5-pro":   {Input: 1.25, Output: 5.00},
	"gemini-1.5-flash": {Input: 0.075, Output: 0.30},
}

func costFor(model string, inputTokens, outputTokens int32) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1_000_000
}
