package sched

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named function run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs registered jobs, each on its own ticker goroutine. A job
// returning an error is logged and keeps its ticker; scheduled work never
// takes the process down.
type Scheduler struct {
	logger *zap.Logger
	jobs   []Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches one goroutine per registered job. Jobs fire after their
// first interval elapses, not immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, job)
	}
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				s.logger.Error("Scheduled job failed",
					zap.String("job", job.Name),
					zap.Error(err))
			}
		}
	}
}

// Stop cancels every job and waits for the goroutines to exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
