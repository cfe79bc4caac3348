package scheduler

import (
	"context"
	"time"

	"github.com/voxroute/switchboard/internal/health"
	"github.com/voxroute/switchboard/internal/logger"
)

const (
	// DefaultProbeInterval is the sweep cadence when none is configured.
	DefaultProbeInterval = 30 * time.Second
)

// ProberRunner drives periodic health sweeps and drains proxy hints into
// the board. The board contract doesn't care about this schedule; any
// cadence works.
type ProberRunner struct {
	prober   *health.Prober
	board    *health.Board
	logger   logger.Logger
	interval time.Duration
	trigger  chan struct{}
	stopCh   chan struct{}
}

// NewProberRunner creates a runner. trigger may be nil when no manual
// sweep endpoint is wired.
func NewProberRunner(
	prober *health.Prober,
	board *health.Board,
	log logger.Logger,
	interval time.Duration,
	trigger chan struct{},
) *ProberRunner {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &ProberRunner{
		prober:   prober,
		board:    board,
		logger:   log,
		interval: interval,
		trigger:  trigger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs an immediate sweep, then sweeps on the interval while
// continuously applying proxy hints.
func (r *ProberRunner) Start(ctx context.Context) error {
	if err := r.prober.Sweep(ctx); err != nil {
		r.logger.Warn("initial health sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep(ctx)
			case <-r.triggerCh():
				r.logger.Info("manual health sweep triggered")
				r.sweep(ctx)
			case obs := <-r.board.Hints():
				r.board.Apply(obs)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the runner.
func (r *ProberRunner) Stop() {
	close(r.stopCh)
}

func (r *ProberRunner) sweep(ctx context.Context) {
	if err := r.prober.Sweep(ctx); err != nil {
		r.logger.Error("health sweep failed",
			logger.Error(err))
	}
}

// triggerCh returns the manual trigger, or a nil channel that never fires.
func (r *ProberRunner) triggerCh() <-chan struct{} {
	if r.trigger == nil {
		return nil
	}
	return r.trigger
}
