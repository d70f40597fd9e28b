package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
	"github.com/brandforge-app/brandforge/internal/testutil"
)

func TestProfileCreateStartsAtFirstStep(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewFakeDB()
	svc := NewProfileService(db, nil)

	p, err := svc.Create(ctx, "u1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, steps.StepWelcome, p.OnboardingStep)
	assert.NotEmpty(t, p.ID)

	got, err := svc.Get(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
}

func TestProfileCreateRequiresName(t *testing.T) {
	svc := NewProfileService(testutil.NewFakeDB(), nil)
	_, err := svc.Create(context.Background(), "u1", "")
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestProfileGetEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewFakeDB()
	svc := NewProfileService(db, nil)

	p, err := svc.Create(ctx, "u1", "Acme")
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID, "someone-else")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(ctx, "missing", "u1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestProfileListByUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewFakeDB()
	svc := NewProfileService(db, nil)

	_, err := svc.Create(ctx, "u1", "Acme")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", "Beta")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", "Other")
	require.NoError(t, err)

	out, err := svc.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
