package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-app/brandforge/internal/logger"
)

func TestDrainWaitsForTasks(t *testing.T) {
	r := NewRunner(logger.NewNop(), time.Second)

	var done atomic.Int32
	for i := 0; i < 5; i++ {
		r.Go("work", func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
	assert.Equal(t, int32(5), done.Load())
}

func TestDrainTimesOutOnStuckTask(t *testing.T) {
	r := NewRunner(logger.NewNop(), time.Minute)

	release := make(chan struct{})
	r.Go("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Drain(ctx), context.DeadlineExceeded)

	close(release)
}

func TestTaskErrorsAreSwallowed(t *testing.T) {
	r := NewRunner(logger.NewNop(), time.Second)

	r.Go("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
}

func TestTaskContextHasTimeout(t *testing.T) {
	r := NewRunner(logger.NewNop(), 5*time.Millisecond)

	expired := make(chan struct{})
	r.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		close(expired)
		return ctx.Err()
	})

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("task context never expired")
	}
}
