package domain

import "time"

// Status is the probed health of a service.
type Status string

const (
	StatusHealthy     Status = "HEALTHY"
	StatusDegraded    Status = "DEGRADED"
	StatusUnreachable Status = "UNREACHABLE"
	// StatusUnknown means no probe result exists or the last one went
	// stale. Unknown is not-yet-proven-bad: hybrid resolution treats it
	// like healthy.
	StatusUnknown Status = "UNKNOWN"
)

// DefaultStaleAfter is how long a snapshot stays trustworthy without a
// fresh probe (three missed 30s probe intervals).
const DefaultStaleAfter = 90 * time.Second

// HealthSnapshot is the most recent probe result for one service.
type HealthSnapshot struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	ObservedAt time.Time     `json:"observed_at"`
	StaleAfter time.Duration `json:"stale_after"`
}

// EffectiveStatus returns the snapshot status, downgraded to UNKNOWN when
// the snapshot has gone stale.
func (s HealthSnapshot) EffectiveStatus(now time.Time) Status {
	if s.Status == "" {
		return StatusUnknown
	}
	staleAfter := s.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if now.Sub(s.ObservedAt) > staleAfter {
		return StatusUnknown
	}
	return s.Status
}

// Observation is one health data point flowing into the board, either from
// the periodic prober or as a fire-and-forget hint from the routing proxy.
type Observation struct {
	Name       string
	Status     Status
	ObservedAt time.Time
	Latency    time.Duration
	// Source records who produced the observation ("prober", "proxy").
	Source string
}
