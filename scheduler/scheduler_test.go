package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"realty_backoffice/auth"
	"realty_backoffice/config"
	"realty_backoffice/services"
)

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 0
}

type recordingRefresher struct {
	sawSession bool
}

func (r *recordingRefresher) Refresh(ctx context.Context) (*services.RefreshResult, error) {
	s, ok := auth.SessionFromContext(ctx)
	r.sawSession = ok && s.Valid(time.Now())
	return &services.RefreshResult{}, nil
}

func TestStart_RejectsBadCron(t *testing.T) {
	s := New(config.SchedulerConfig{RefreshCron: "not a cron"}, nil, &recordingRefresher{})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestStart_NoJobs(t *testing.T) {
	s := New(config.SchedulerConfig{}, nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}

func TestSweepJobRuns(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(config.SchedulerConfig{SweepEvery: time.Second}, sweeper, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for sweeper.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if sweeper.calls.Load() == 0 {
		t.Fatal("expected sweep to run")
	}
}

func TestRunRefreshActsAsOperator(t *testing.T) {
	r := &recordingRefresher{}
	s := New(config.SchedulerConfig{}, nil, r)

	s.RunRefresh(context.Background())
	if !r.sawSession {
		t.Fatal("expected refresh to run with an admin session")
	}
}
