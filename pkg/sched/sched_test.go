package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestSchedulerRunsJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	ran := make(chan struct{}, 8)

	s := New(zap.NewNop())
	s.Register(Job{
		Name:     "test-job",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})

	s.Start(context.Background())

	// Wait for at least two ticks so we know the ticker keeps going.
	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("job did not run within 2s (run %d)", i+1)
		}
	}

	s.Stop()
}

func TestSchedulerSurvivesJobErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	ran := make(chan struct{}, 8)

	s := New(zap.NewNop())
	s.Register(Job{
		Name:     "failing-job",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return errors.New("boom")
		},
	})

	s.Start(context.Background())

	// An error on the first run must not stop the second.
	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("job did not keep running after an error (run %d)", i+1)
		}
	}

	s.Stop()
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(zap.NewNop())
	s.Register(Job{Name: "never-started", Interval: time.Minute, Run: func(ctx context.Context) error { return nil }})
	s.Stop()
}
