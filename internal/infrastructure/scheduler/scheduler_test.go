package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New("UTC", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func TestNew_RejectsUnknownTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons", logger.NewNop())
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(Job{Name: "reminders", Spec: "0 0 9 * * *", Run: noop}))
	require.NoError(t, s.Register(Job{Name: "idempotency-cleanup", Spec: "0 15 * * * *", Run: noop}))

	assert.Error(t, s.Register(Job{Name: "reminders", Spec: "0 0 10 * * *", Run: noop}), "duplicate name")
	assert.Error(t, s.Register(Job{Name: "broken", Spec: "every morning", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "", Spec: "0 0 9 * * *", Run: noop}))

	assert.Equal(t, []string{"idempotency-cleanup", "reminders"}, s.Jobs())
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler(t)
	calls := 0
	require.NoError(t, s.Register(Job{
		Name: "sync",
		Spec: "0 30 2 * * *",
		Run: func(context.Context) error {
			calls++
			return nil
		},
	}))

	require.NoError(t, s.RunNow(context.Background(), "sync"))
	assert.Equal(t, 1, calls)

	err := s.RunNow(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrUnknownJob))
}

func TestRunNow_PropagatesErrorsAndPanics(t *testing.T) {
	s := newTestScheduler(t)
	boom := errors.New("gateway unavailable")
	require.NoError(t, s.Register(Job{Name: "fails", Spec: "0 0 * * * *", Run: func(context.Context) error { return boom }}))
	require.NoError(t, s.Register(Job{Name: "panics", Spec: "0 0 * * * *", Run: func(context.Context) error { panic("nil map") }}))

	assert.True(t, errors.Is(s.RunNow(context.Background(), "fails"), boom))

	err := s.RunNow(context.Background(), "panics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")

	// the guard is released after a panic
	err = s.RunNow(context.Background(), "panics")
	assert.False(t, errors.Is(err, ErrJobRunning))
}

func TestRunNow_SkipsOverlappingRuns(t *testing.T) {
	s := newTestScheduler(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register(Job{
		Name: "slow",
		Spec: "0 0 9 * * *",
		Run: func(context.Context) error {
			close(entered)
			<-release
			return nil
		},
	}))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "slow") }()
	<-entered

	assert.True(t, errors.Is(s.RunNow(context.Background(), "slow"), ErrJobRunning))

	close(release)
	require.NoError(t, <-done)
}

func TestRunNow_AppliesTimeout(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register(Job{
		Name:    "bounded",
		Spec:    "0 0 9 * * *",
		Timeout: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	err := s.RunNow(context.Background(), "bounded")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
