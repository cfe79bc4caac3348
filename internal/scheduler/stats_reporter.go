package scheduler

import (
	"context"
	"time"

	"github.com/voxroute/switchboard/internal/logger"
	"github.com/voxroute/switchboard/internal/registry"
)

// StatsReporter periodically logs decision cache effectiveness, so cache
// degradation (a dead backend shows up as a climbing miss rate) is visible
// without an admin round-trip.
type StatsReporter struct {
	registry *registry.Registry
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewStatsReporter creates a stats reporter
func NewStatsReporter(reg *registry.Registry, log logger.Logger, interval time.Duration) *StatsReporter {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StatsReporter{
		registry: reg,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins periodic reporting
func (s *StatsReporter) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.report()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the reporter
func (s *StatsReporter) Stop() {
	close(s.stopCh)
}

func (s *StatsReporter) report() {
	stats := s.registry.CacheStats()
	s.logger.Info("decision cache stats",
		logger.Int64("hits", stats.Hits),
		logger.Int64("misses", stats.Misses),
		logger.Int64("invalidations", stats.Invalidations),
		logger.Int("entries", stats.Entries))
}
