// Package scheduler triggers collection runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs a collection every six hours
const DefaultSpec = "@every 6h"

// TriggerFunc starts one collection run
type TriggerFunc func(ctx context.Context) error

// Config wires a Scheduler
type Config struct {
	Spec       string
	RunOnStart bool
	Timeout    time.Duration
	Trigger    TriggerFunc
	Logger     *slog.Logger
}

// Scheduler wraps robfig/cron. A failing trigger is logged and the next
// tick proceeds as normal.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	runOnStart bool
	timeout    time.Duration
	trigger    TriggerFunc
	logger     *slog.Logger
}

// New validates the schedule and builds a stopped scheduler
func New(cfg Config) (*Scheduler, error) {
	if cfg.Trigger == nil {
		return nil, fmt.Errorf("scheduler: trigger is required")
	}
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Spec, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:       cfg.Spec,
		runOnStart: cfg.RunOnStart,
		timeout:    cfg.Timeout,
		trigger:    cfg.Trigger,
		logger:     cfg.Logger,
	}, nil
}

// Run registers the job and blocks until ctx is canceled, then waits for
// any in-flight trigger to finish
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		slog.String("spec", s.spec),
		slog.Bool("run_on_start", s.runOnStart),
	)

	if s.runOnStart {
		go s.tick(ctx)
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.trigger(ctx); err != nil {
		s.logger.Error("Scheduled collection trigger failed",
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("Scheduled collection triggered",
		slog.Duration("latency", time.Since(start)),
	)
}
