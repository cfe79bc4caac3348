package domain

import "time"

// RoutingDecision is the cached outcome of resolving a service: the mode
// actually used for calls until the decision expires or is invalidated.
//
// A decision is a pure function of the descriptor and health snapshot at
// computation time. It is never mutated in place; a new decision replaces
// the old one in the cache.
type RoutingDecision struct {
	Name string `json:"name"`

	// EffectiveMode is LOCAL, REMOTE or DISABLED. HYBRID never appears
	// here; it is collapsed at resolution time.
	EffectiveMode Mode `json:"effective_mode"`

	ComputedAt time.Time `json:"computed_at"`
	ExpiresAt  time.Time `json:"expires_at"`

	// HealthStatus is the health reading the decision was computed from,
	// kept for audit (UNKNOWN for non-hybrid services).
	HealthStatus Status `json:"health_status,omitempty"`

	// DeclaredMode records the intent the decision was derived from.
	DeclaredMode Mode `json:"declared_mode"`
}

// Expired reports whether the decision is past its TTL.
func (d RoutingDecision) Expired(now time.Time) bool {
	return !d.ExpiresAt.After(now)
}
