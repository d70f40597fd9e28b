package onboarding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
)

func TestBuildSystemPromptSubstitutesSnapshot(t *testing.T) {
	catalog := steps.NewCatalog()
	cfg := catalog.Get(steps.StepBrandAssessment)
	require.NotNil(t, cfg)

	snap := map[string]string{"brandName": "Acme", "industry": "robotics"}
	prompt := buildSystemPrompt(cfg, snap, "", false)

	assert.Contains(t, prompt, "Acme")
	assert.NotContains(t, prompt, "{{brandName}}")
	assert.Contains(t, prompt, "Known brand profile so far:")
	assert.Contains(t, prompt, "- Industry: robotics")
	assert.Contains(t, prompt, steps.CompletionMarker)
}

func TestBuildSystemPromptEmptySnapshot(t *testing.T) {
	catalog := steps.NewCatalog()
	cfg := catalog.Get(steps.StepWelcome)
	require.NotNil(t, cfg)

	prompt := buildSystemPrompt(cfg, map[string]string{}, "", false)
	assert.NotContains(t, prompt, "Known brand profile so far:")
	assert.NotContains(t, prompt, "{{")
}

func TestBuildSystemPromptTerminalOmitsMarker(t *testing.T) {
	catalog := steps.NewCatalog()
	cfg := catalog.Get(steps.StepComplete)
	require.NotNil(t, cfg)

	prompt := buildSystemPrompt(cfg, map[string]string{"brandName": "Acme"}, "", true)
	assert.NotContains(t, prompt, steps.CompletionMarker)
}

func TestBuildSystemPromptIncludesContent(t *testing.T) {
	catalog := steps.NewCatalog()
	cfg := catalog.Get(steps.StepVisualIdentity)
	require.NotNil(t, cfg)

	prompt := buildSystemPrompt(cfg, nil, "Primary color is navy.", false)
	assert.Contains(t, prompt, "uploaded brand materials")
	assert.Contains(t, prompt, "Primary color is navy.")
}

func TestStripMarker(t *testing.T) {
	clean, found := stripMarker("All done here. " + steps.CompletionMarker)
	assert.True(t, found)
	assert.Equal(t, "All done here.", clean)

	clean, found = stripMarker("Still working on it.")
	assert.False(t, found)
	assert.Equal(t, "Still working on it.", clean)

	// Marker mid-message is removed everywhere.
	clean, found = stripMarker("Done " + steps.CompletionMarker + " thanks " + steps.CompletionMarker)
	assert.True(t, found)
	assert.False(t, strings.Contains(clean, steps.CompletionMarker))
}
