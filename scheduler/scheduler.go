package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"realty_backoffice/auth"
	"realty_backoffice/config"
	"realty_backoffice/services"
)

// Sweeper is a limiter that can drop idle state.
type Sweeper interface {
	Sweep() int
}

// Refresher re-scrapes imported listings.
type Refresher interface {
	Refresh(ctx context.Context) (*services.RefreshResult, error)
}

type Scheduler struct {
	cfg       config.SchedulerConfig
	cron      *cron.Cron
	sweeper   Sweeper
	refresher Refresher
	jobTTL    time.Duration
}

func New(cfg config.SchedulerConfig, sweeper Sweeper, refresher Refresher) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		cron:      cron.New(),
		sweeper:   sweeper,
		refresher: refresher,
		jobTTL:    30 * time.Minute,
	}
}

// Start registers the configured jobs and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := 0

	if s.sweeper != nil && s.cfg.SweepEvery > 0 {
		spec := fmt.Sprintf("@every %s", s.cfg.SweepEvery)
		if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
			return fmt.Errorf("invalid sweep interval: %w", err)
		}
		jobs++
	}

	if s.refresher != nil && s.cfg.RefreshCron != "" {
		log.Printf("Scheduler: refreshing imported listings on %q", s.cfg.RefreshCron)
		if _, err := s.cron.AddFunc(s.cfg.RefreshCron, func() { s.RunRefresh(ctx) }); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		jobs++
	}

	if jobs == 0 {
		log.Println("Scheduler: no jobs configured")
		return nil
	}

	s.cron.Start()
	return nil
}

// Stop stops the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	left := s.sweeper.Sweep()
	log.Printf("Scheduler: rate limiter sweep, %d active clients", left)
}

// RunRefresh runs one refresh pass on behalf of the operator.
func (s *Scheduler) RunRefresh(ctx context.Context) {
	ctx = auth.WithSession(ctx, auth.SystemSession(s.jobTTL))
	ctx, cancel := context.WithTimeout(ctx, s.jobTTL)
	defer cancel()

	if _, err := s.refresher.Refresh(ctx); err != nil {
		log.Printf("Scheduler: refresh failed: %v", err)
	}
}
