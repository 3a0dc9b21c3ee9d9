package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/internal/tempfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countTask struct {
	id      int
	running *atomic.Int32
	peak    *atomic.Int32
}

func (t *countTask) Kind() string { return "count" }

func (t *countTask) Run(ctx context.Context) error {
	n := t.running.Add(1)
	for {
		p := t.peak.Load()
		if n <= p || t.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	t.running.Add(-1)
	return nil
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	handled := 0
	maxSeenInFlight := 0
	var s *Scheduler
	s = NewScheduler(context.Background(), 2, 3, func(done Task) ([]Task, error) {
		handled++
		if s.InFlight() > maxSeenInFlight {
			maxSeenInFlight = s.InFlight()
		}
		return nil, nil
	}, nil)
	defer s.Close()

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Submit(&countTask{id: i, running: &running, peak: &peak}))
		require.NoError(t, s.Poll())
		assert.LessOrEqual(t, s.InFlight(), 3)
	}
	require.NoError(t, s.Drain())

	assert.Equal(t, 20, handled)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Less(t, maxSeenInFlight, 3)
	assert.Zero(t, s.InFlight())
}

func TestSchedulerRunsFollowUps(t *testing.T) {
	var order []string
	s := NewScheduler(context.Background(), 4, 4, func(done Task) ([]Task, error) {
		order = append(order, done.Kind())
		if done.Kind() == "first" {
			return []Task{
				&Func{Name: "second", Fn: func(context.Context) error { return nil }},
				&Func{Name: "second", Fn: func(context.Context) error { return nil }},
			}, nil
		}
		return nil, nil
	}, nil)
	defer s.Close()

	require.NoError(t, s.Submit(&Func{Name: "first", Fn: func(context.Context) error { return nil }}))
	require.NoError(t, s.Drain())
	assert.Equal(t, []string{"first", "second", "second"}, order)
}

func TestSchedulerHandlesCompletionsOutOfOrder(t *testing.T) {
	release := make(chan struct{})
	var handled []string
	s := NewScheduler(context.Background(), 2, 2, func(done Task) ([]Task, error) {
		handled = append(handled, done.Kind())
		return nil, nil
	}, nil)
	defer s.Close()

	require.NoError(t, s.Submit(&Func{Name: "slow", Fn: func(ctx context.Context) error {
		<-release
		return nil
	}}))
	require.NoError(t, s.Submit(&Func{Name: "fast", Fn: func(context.Context) error { return nil }}))

	deadline := time.Now().Add(5 * time.Second)
	for len(handled) == 0 && time.Now().Before(deadline) {
		require.NoError(t, s.Poll())
		time.Sleep(time.Millisecond)
	}
	close(release)
	require.NoError(t, s.Drain())
	assert.Equal(t, []string{"fast", "slow"}, handled)
}

func TestSchedulerFailsFast(t *testing.T) {
	boom := errors.New("disk full")
	s := NewScheduler(context.Background(), 2, 4, func(Task) ([]Task, error) { return nil, nil }, nil)
	defer s.Close()

	require.NoError(t, s.Submit(&Func{Name: "sort", Fn: func(context.Context) error { return boom }}))
	require.NoError(t, s.Submit(&Func{Name: "merge", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))

	err := s.Drain()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sort task")

	assert.ErrorIs(t, s.Submit(&Func{Name: "late", Fn: func(context.Context) error { return nil }}), boom)
	assert.ErrorIs(t, s.Poll(), boom)
	s.Close()
	assert.Zero(t, s.InFlight())
}

func TestSchedulerHandlerError(t *testing.T) {
	s := NewScheduler(context.Background(), 1, 1, func(Task) ([]Task, error) {
		return nil, errors.New("no temp space")
	}, nil)
	defer s.Close()

	require.NoError(t, s.Submit(&Func{Name: "sort", Fn: func(context.Context) error { return nil }}))
	assert.EqualError(t, s.Drain(), "no temp space")
}

func TestDeleteTask(t *testing.T) {
	files, err := tempfile.NewFactory(t.TempDir(), "x")
	require.NoError(t, err)
	path, err := files.Create()
	require.NoError(t, err)

	s := NewScheduler(context.Background(), 1, 1, func(Task) ([]Task, error) { return nil, nil }, nil)
	defer s.Close()
	require.NoError(t, s.Submit(&DeleteTask{Path: path, Files: files}))
	require.NoError(t, s.Drain())
	assert.Zero(t, files.Owned())
}
