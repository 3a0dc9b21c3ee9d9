package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributional-Thesaurus-Builder/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

// Handler receives each completed task on the driver goroutine and returns
// follow-up tasks to schedule.
type Handler func(t Task) ([]Task, error)

type completion struct {
	task    Task
	err     error
	elapsed time.Duration
}

// Scheduler runs tasks on at most threads goroutines at once and keeps at
// most maxInFlight tasks submitted but not yet handled. Completions are
// handled in the order tasks finish. All methods must be called from one
// driver goroutine.
//
// The first task error cancels outstanding work and is returned from every
// later call.
type Scheduler struct {
	ctx         context.Context
	cancel      context.CancelFunc
	sem         *semaphore.Weighted
	done        chan completion
	handler     Handler
	pending     []Task
	inFlight    int
	maxInFlight int
	err         error
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewScheduler returns a Scheduler bound to ctx. threads and maxInFlight
// below 1 are raised to 1.
func NewScheduler(ctx context.Context, threads, maxInFlight int, handler Handler, m *metrics.Metrics) *Scheduler {
	if threads < 1 {
		threads = 1
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:         ctx,
		cancel:      cancel,
		sem:         semaphore.NewWeighted(int64(threads)),
		done:        make(chan completion, maxInFlight),
		handler:     handler,
		maxInFlight: maxInFlight,
		metrics:     m,
		logger:      slog.Default().With("component", "scheduler"),
	}
}

// Submit schedules t, blocking while the scheduler is full. Completions
// handled while waiting may schedule further tasks.
func (s *Scheduler) Submit(t Task) error {
	if s.err != nil {
		return s.err
	}
	s.pending = append(s.pending, t)
	for {
		s.startPending()
		if len(s.pending) == 0 {
			return nil
		}
		if err := s.awaitOne(); err != nil {
			return err
		}
	}
}

// Poll handles every task that has already completed without blocking.
func (s *Scheduler) Poll() error {
	if s.err != nil {
		return s.err
	}
	for {
		select {
		case c := <-s.done:
			if err := s.complete(c); err != nil {
				return err
			}
		default:
			s.startPending()
			return nil
		}
	}
}

// Drain blocks until every submitted task and all of their follow-ups have
// completed and been handled.
func (s *Scheduler) Drain() error {
	if s.err != nil {
		return s.err
	}
	for {
		s.startPending()
		if s.inFlight == 0 {
			return nil
		}
		if err := s.awaitOne(); err != nil {
			return err
		}
	}
}

// Close cancels outstanding tasks and waits for their goroutines to exit
// without handling their results.
func (s *Scheduler) Close() {
	s.cancel()
	for ; s.inFlight > 0; s.inFlight-- {
		<-s.done
	}
	s.pending = nil
}

// InFlight returns the number of started tasks not yet handled.
func (s *Scheduler) InFlight() int {
	return s.inFlight
}

func (s *Scheduler) startPending() {
	for len(s.pending) > 0 && s.inFlight < s.maxInFlight {
		t := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.inFlight++
		go s.run(t)
	}
}

func (s *Scheduler) run(t Task) {
	start := time.Now()
	err := s.sem.Acquire(s.ctx, 1)
	if err == nil {
		err = t.Run(s.ctx)
		s.sem.Release(1)
	}
	s.done <- completion{task: t, err: err, elapsed: time.Since(start)}
}

func (s *Scheduler) awaitOne() error {
	select {
	case c := <-s.done:
		return s.complete(c)
	case <-s.ctx.Done():
		return s.fail(s.ctx.Err())
	}
}

func (s *Scheduler) complete(c completion) error {
	s.inFlight--
	s.metrics.ObserveTask(c.task.Kind(), c.err, c.elapsed)
	if c.err != nil {
		return s.fail(fmt.Errorf("%s task: %w", c.task.Kind(), c.err))
	}
	s.logger.Debug("task completed", "kind", c.task.Kind(), "elapsed", c.elapsed)
	next, err := s.handler(c.task)
	if err != nil {
		return s.fail(err)
	}
	s.pending = append(s.pending, next...)
	return nil
}

func (s *Scheduler) fail(err error) error {
	if s.err == nil {
		s.err = err
		s.cancel()
	}
	return s.err
}
