package scheduler

import (
	"context"
	"sync"
	"time"

	drepo "CoinPulse/internal/domain/repository"
	applogger "CoinPulse/pkg/logger"
)

// Job is one ingestion pass.
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler triggers the job once immediately on Start and then on a fixed
// interval until stopped. Overlap policy: skip — if a run is still in
// flight when the ticker fires, that tick is dropped and counted.
type Scheduler struct {
	job      Job
	interval time.Duration
	metrics  drepo.Metrics
	l        *applogger.Logger

	mu      sync.Mutex
	running bool // a job run is in flight

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler.
func New(job Job, interval time.Duration, metrics drepo.Metrics, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		metrics:  metrics,
		l:        l,
	}
}

// Start launches the scheduling loop. The first run happens immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx)

	s.l.Info("scheduler started", applogger.Duration("interval_ms", s.interval))
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Cold-start population before the first tick.
	s.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// trigger runs the job unless one is already in flight.
func (s *Scheduler) trigger(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.metrics.RecordCycle("skipped")
		s.l.Warn("previous cycle still running, skipping trigger")
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		// Errors are already logged and counted by the job; a failed
		// cycle's retry is the next scheduled trigger.
		_ = s.job.Run(ctx)
	}()
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.l.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
