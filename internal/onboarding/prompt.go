package onboarding

import (
	"fmt"
	"strings"

	"github.com/brandforge-app/brandforge/internal/fields"
	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
)

// markerInstruction is appended to the system prompt on non-terminal steps.
const markerInstruction = `

When you judge this step's goals satisfied, and only after at least one prior exchange
with the user, end your message with the exact text %s. Do not mention the marker or
explain it; just append it when the step is done.`

// buildSystemPrompt renders a step's template against the profile snapshot
// and appends the known-profile block, any retrieved brand-material context
// and (for non-terminal steps) the completion-marker instruction.
func buildSystemPrompt(step *steps.Config, snapshot map[string]string, contentSummary string, terminal bool) string {
	var b strings.Builder
	b.WriteString(renderTemplate(step.PromptTemplate, snapshot))

	if block := renderSnapshot(snapshot); block != "" {
		b.WriteString("\n\nKnown brand profile so far:\n")
		b.WriteString(block)
	}

	if contentSummary != "" {
		b.WriteString("\n\nRelevant excerpts from the user's uploaded brand materials:\n")
		b.WriteString(contentSummary)
	}

	if !terminal {
		b.WriteString(fmt.Sprintf(markerInstruction, steps.CompletionMarker))
	}
	return b.String()
}

// renderTemplate substitutes {{fieldName}} placeholders from the snapshot.
// Missing values render as an empty string.
func renderTemplate(tmpl string, snapshot map[string]string) string {
	for _, d := range fields.All() {
		placeholder := "{{" + string(d.Name) + "}}"
		if !strings.Contains(tmpl, placeholder) {
			continue
		}
		tmpl = strings.ReplaceAll(tmpl, placeholder, snapshot[string(d.Name)])
	}
	return tmpl
}

func renderSnapshot(snapshot map[string]string) string {
	var b strings.Builder
	for _, d := range fields.All() {
		v := snapshot[string(d.Name)]
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", d.Label, v)
	}
	return strings.TrimRight(b.String(), "\n")
}

// stripMarker removes every occurrence of the completion marker and trailing
// whitespace, reporting whether the marker was present anywhere.
func stripMarker(raw string) (string, bool) {
	if !strings.Contains(raw, steps.CompletionMarker) {
		return raw, false
	}
	clean := strings.ReplaceAll(raw, steps.CompletionMarker, "")
	return strings.TrimSpace(clean), true
}
