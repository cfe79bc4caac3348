// Package health holds the live health state consumed by the registry. The
// board is a pull-based snapshot store: probers and the routing proxy push
// observations in, the registry reads the latest snapshot out. The prober's
// scheduling model never leaks into the resolution path.
package health

import (
	"sync"
	"time"

	"github.com/voxroute/switchboard/internal/domain"
)

// DefaultHintBuffer is the size of the fire-and-forget hint channel.
const DefaultHintBuffer = 256

// Board stores the freshest health snapshot per service.
type Board struct {
	mu         sync.RWMutex
	snapshots  map[string]domain.HealthSnapshot
	staleAfter time.Duration
	hints      chan domain.Observation
}

// NewBoard creates a board whose snapshots go stale (read as UNKNOWN)
// staleAfter after their observation time.
func NewBoard(staleAfter time.Duration) *Board {
	if staleAfter <= 0 {
		staleAfter = domain.DefaultStaleAfter
	}
	return &Board{
		snapshots:  make(map[string]domain.HealthSnapshot),
		staleAfter: staleAfter,
		hints:      make(chan domain.Observation, DefaultHintBuffer),
	}
}

// Apply records an observation. Out-of-order and duplicate observations
// are tolerated: an observation older than the stored snapshot is dropped,
// never applied over a newer one.
func (b *Board) Apply(obs domain.Observation) {
	if obs.Name == "" {
		return
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.snapshots[obs.Name]; ok && existing.ObservedAt.After(obs.ObservedAt) {
		return
	}
	b.snapshots[obs.Name] = domain.HealthSnapshot{
		Name:       obs.Name,
		Status:     obs.Status,
		ObservedAt: obs.ObservedAt,
		StaleAfter: b.staleAfter,
	}
}

// Snapshot returns the stored snapshot for name. Unknown services get a
// zero snapshot whose effective status is UNKNOWN.
func (b *Board) Snapshot(name string) domain.HealthSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if snap, ok := b.snapshots[name]; ok {
		return snap
	}
	return domain.HealthSnapshot{Name: name, Status: domain.StatusUnknown, StaleAfter: b.staleAfter}
}

// Status returns the effective (staleness-adjusted) status for name.
func (b *Board) Status(name string) domain.Status {
	return b.Snapshot(name).EffectiveStatus(time.Now())
}

// OfferHint enqueues an observation without blocking. When the buffer is
// full the hint is dropped; callers treat this as fire-and-forget.
func (b *Board) OfferHint(obs domain.Observation) {
	select {
	case b.hints <- obs:
	default:
	}
}

// Hints exposes the hint channel for the draining worker.
func (b *Board) Hints() <-chan domain.Observation {
	return b.hints
}

// DrainHints applies every queued hint without blocking. Returns the
// number applied.
func (b *Board) DrainHints() int {
	n := 0
	for {
		select {
		case obs := <-b.hints:
			b.Apply(obs)
			n++
		default:
			return n
		}
	}
}
