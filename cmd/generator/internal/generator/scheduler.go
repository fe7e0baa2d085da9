package generator

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// every is a fixed-delay cron.Schedule. Unlike cron.Every it is not rounded
// to whole seconds.
type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

// cronLogger routes cron's logging through zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler ticks a Feed on its interval until stopped.
type Scheduler struct {
	feed   *Feed
	logger *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stopped chan struct{}
	done    context.Context // from the last cron.Stop, until the next Start
}

func NewScheduler(feed *Feed, logger *zap.Logger) *Scheduler {
	return &Scheduler{feed: feed, logger: logger}
}

// Start runs one tick immediately, then one per interval. Cancelling ctx has
// the same effect as Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrSchedulerRunning
	}

	cl := cronLogger{s: s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(every(s.feed.Interval()), cron.FuncJob(func() { s.feed.Tick() }))

	s.feed.Tick()
	c.Start()

	s.cron = c
	s.done = nil
	s.stopped = make(chan struct{})
	go s.watch(ctx, s.stopped)

	s.logger.Info("Feed scheduler started",
		zap.String("feed_id", s.feed.ID()),
		zap.Duration("interval", s.feed.Interval()),
	)
	return nil
}

func (s *Scheduler) watch(ctx context.Context, stopped <-chan struct{}) {
	select {
	case <-ctx.Done():
		s.Stop()
	case <-stopped:
	}
}

// Stop prevents further ticks. The returned context is done once a tick that
// was already running has finished. Calling Stop again, including after ctx
// cancellation stopped the scheduler, returns that same context.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		if s.done != nil {
			return s.done
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.done = s.cron.Stop()
	close(s.stopped)
	s.cron = nil
	s.logger.Info("Feed scheduler stopped", zap.String("feed_id", s.feed.ID()))
	return s.done
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}
