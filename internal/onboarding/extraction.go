package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/fields"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
)

// Extractor runs the second, low-temperature model pass that turns a
// freeform exchange into structured field values.
type Extractor struct {
	llm core.LLMProvider
	log *logger.Logger
}

func NewExtractor(llm core.LLMProvider, log *logger.Logger) *Extractor {
	return &Extractor{llm: llm, log: log.With("component", "extraction")}
}

// Extract asks the model for a strict-JSON field diff over the recent
// transcript, restricted to the step's extractable fields plus the brand
// name. A nil result means nothing worth committing.
func (e *Extractor) Extract(ctx context.Context, step *steps.Config, recent []core.ChatMessage) (map[string]any, error) {
	if e.llm == nil {
		return nil, core.ErrServiceUnavailable
	}

	allowed := allowedFields(step)

	var sb strings.Builder
	for _, m := range recent {
		role := "Assistant"
		if m.Role == "user" {
			role = "User"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	system := fmt.Sprintf(`You extract structured brand data from an onboarding conversation.
Return a single JSON object. Use only these keys: %s.
Include a key only when the user explicitly confirmed its value in the conversation.
Values may be strings, arrays of strings or flat objects. Never invent data.
If nothing was confirmed, return {}.`, strings.Join(allowed, ", "))

	raw, err := e.llm.GenerateJSON(ctx, system, sb.String())
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	out := ParseExtraction(raw)
	if out == nil {
		e.log.Debug("extraction produced no usable fields", "step", step.ID)
	}
	return out, nil
}

func allowedFields(step *steps.Config) []string {
	out := make([]string, 0, len(step.ExtractableFields)+1)
	seen := map[fields.Field]bool{}
	for _, f := range append([]fields.Field{fields.BrandName}, step.ExtractableFields...) {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, string(f))
	}
	return out
}

// ParseExtraction parses a model's extraction reply. It tolerates a markdown
// code-fence wrapper, requires a JSON object at the top level, keeps only
// known tracked fields and drops null/empty values. Returns nil rather than
// an empty map when nothing survives, so callers can tell "nothing to
// commit" from "commit an empty change".
func ParseExtraction(raw string) map[string]any {
	raw = stripCodeFence(strings.TrimSpace(raw))
	if raw == "" {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}

	out := make(map[string]any, len(parsed))
	for k, v := range parsed {
		if !fields.Known(k) {
			continue
		}
		if isEmptyValue(v) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
