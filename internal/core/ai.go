package core

import "context"

// ChatMessage is one turn of model input, chronological order.
type ChatMessage struct {
	Role    string // "user" or "model"
	Content string
}

// Usage carries the provider's own token accounting for one generation.
type Usage struct {
	InputTokens  int32
	OutputTokens int32
	Model        string
}

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider abstracts the text-generation capability: streaming chat
// completion and a single-shot JSON-constrained completion.
type LLMProvider interface {
	// GenerateStream streams the model's reply for the given system prompt
	// and chronological history; onDelta is invoked once per text delta in
	// generation order. Returning an error from onDelta aborts the stream.
	// The returned Usage may be nil if the provider reported none.
	GenerateStream(ctx context.Context, systemPrompt string, history []ChatMessage, onDelta func(delta string) error) (*Usage, error)

	// GenerateJSON runs a low-temperature completion constrained to emit
	// JSON and returns the raw text.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
