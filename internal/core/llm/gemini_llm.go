package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/brandforge-app/brandforge/internal/core"
)

type GeminiLLM struct {
	client       *genai.Client
	modelName    string
	extractModel string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName, extractModel string) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	if extractModel == "" {
		extractModel = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName, extractModel: extractModel}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// GenerateStream streams a chat completion. History must be chronological
// and end with the user message that triggers this turn.
func (g *GeminiLLM) GenerateStream(ctx context.Context, systemPrompt string, history []core.ChatMessage, onDelta func(string) error) (*core.Usage, error) {
	if len(history) == 0 {
		return nil, errors.New("empty history")
	}

	m := g.client.GenerativeModel(g.modelName)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	cs := m.StartChat()
	prior := history[:len(history)-1]
	cs.History = make([]*genai.Content, 0, len(prior))
	for _, msg := range prior {
		cs.History = append(cs.History, &genai.Content{
			Role:  msg.Role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	last := history[len(history)-1]
	iter := cs.SendMessageStream(ctx, genai.Text(last.Content))

	var usage *core.Usage
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return usage, fmt.Errorf("gemini stream: %w", err)
		}
		if resp.UsageMetadata != nil {
			usage = &core.Usage{
				InputTokens:  resp.UsageMetadata.PromptTokenCount,
				OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
				Model:        g.modelName,
			}
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, p := range cand.Content.Parts {
				t, ok := p.(genai.Text)
				if !ok || len(t) == 0 {
					continue
				}
				if err := onDelta(string(t)); err != nil {
					return usage, err
				}
			}
		}
	}
	return usage, nil
}

// GenerateJSON runs a low-temperature completion constrained to JSON output.
func (g *GeminiLLM) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := g.client.GenerativeModel(g.extractModel)
	m.SetTemperature(0.1)
	m.ResponseMIMEType = "application/json"
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
