package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spacetraveling/internal/domain"
)

type countingPrerenderer struct {
	calls    atomic.Int32
	err      error
	deadline atomic.Bool
}

func (p *countingPrerenderer) Prerender(ctx context.Context) (*domain.PrerenderStats, error) {
	p.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		p.deadline.Store(true)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &domain.PrerenderStats{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	p := &countingPrerenderer{}
	s := NewScheduler(p, 20*time.Millisecond, time.Second, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, p.deadline.Load(), "each run is bounded by the timeout")
}

func TestScheduler_ContinuesAfterErrors(t *testing.T) {
	p := &countingPrerenderer{err: errors.New("render listing: unexpected status: 500")}
	s := NewScheduler(p, 10*time.Millisecond, time.Second, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestScheduler_StopsWhenCancelledBeforeStart(t *testing.T) {
	p := &countingPrerenderer{}
	s := NewScheduler(p, time.Hour, time.Second, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), p.calls.Load())
}
