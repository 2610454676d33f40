package daemon

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval matches a render loop running at roughly 20 frames per second.
const DefaultInterval = 50 * time.Millisecond

// Poller is the part of the registry the runner drives.
type Poller interface {
	Poll()
	Deregister()
}

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
	// Tick, if set, runs after every Poll on the runner's goroutine.
	Tick func()
}

// Runner polls the registry on a fixed tick and deregisters on shutdown.
type Runner struct {
	interval time.Duration
	poller   Poller
	tick     func()
	logger   *slog.Logger
}

// NewRunner creates a runner for an already registered poller.
func NewRunner(cfg RunnerConfig, poller Poller) *Runner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		interval: interval,
		poller:   poller,
		tick:     cfg.Tick,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled, then deregisters. Blocks.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("poll loop started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.poller.Deregister()
			r.logger.Debug("poll loop stopped")
			return
		case <-ticker.C:
			r.step()
		}
	}
}

// step performs a single poll pass.
func (r *Runner) step() {
	// Recover from panics so a faulty geometry source or callback does not
	// skip teardown.
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("poll panic recovered", "error", err)
		}
	}()

	r.poller.Poll()
	if r.tick != nil {
		r.tick()
	}
}

// PollNow triggers an immediate poll pass.
func (r *Runner) PollNow() {
	r.step()
}
