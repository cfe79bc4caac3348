package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode is a connection mode for a service: either the operator-declared
// preference or the effective mode computed by the registry.
type Mode string

const (
	// ModeLocal routes calls through the in-process dispatch table.
	ModeLocal Mode = "LOCAL"
	// ModeRemote routes calls over the remote transport.
	ModeRemote Mode = "REMOTE"
	// ModeHybrid prefers local dispatch and fails away to remote on bad
	// health. Valid only as a declared mode; resolution always collapses
	// it to LOCAL or REMOTE.
	ModeHybrid Mode = "HYBRID"
	// ModeDisabled rejects calls before any dispatch attempt.
	ModeDisabled Mode = "DISABLED"
)

// ParseMode converts operator input into a Mode. Both the canonical names
// and the legacy connection vocabulary ("router" for local dispatch,
// "rest" for remote) are accepted. Anything else is a validation error.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "router":
		return ModeLocal, nil
	case "remote", "rest":
		return ModeRemote, nil
	case "hybrid":
		return ModeHybrid, nil
	case "disabled":
		return ModeDisabled, nil
	default:
		return "", fmt.Errorf("invalid connection mode %q", s)
	}
}

// IsDeclarable reports whether m is a valid operator-declared mode.
func (m Mode) IsDeclarable() bool {
	switch m {
	case ModeLocal, ModeRemote, ModeHybrid, ModeDisabled:
		return true
	}
	return false
}

// ServiceDescriptor represents the canonical directory truth about one
// routable service.
//
// It is NOT tied to Redis, YAML seeds or any external source. All inputs
// (seed files, admin updates, migration) are merged into this structure.
//
// A ServiceDescriptor is uniquely identified by its Name.
type ServiceDescriptor struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// Name is the unique service key. Immutable once registered.
	Name string

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	// DisplayName is a human label. Mutable.
	DisplayName string

	// ─────────────────────────────
	// Routing intent & capability
	// ─────────────────────────────

	// DeclaredMode is the operator-stated preference for how this
	// service should be reached.
	DeclaredMode Mode

	// HasLocalHandler is true when an in-process dispatch target exists
	// for this service. Set once at registration, never user-editable.
	HasLocalHandler bool

	// Active soft-disables the service when false, independently of
	// DeclaredMode. Inactive always wins over declared intent and health.
	Active bool

	// ProbeURL is the endpoint the health prober checks. Empty means the
	// service is never probed and stays UNKNOWN.
	ProbeURL string

	// ─────────────────────────────
	// Bookkeeping
	// ─────────────────────────────

	// CreatedAt is the registration time.
	CreatedAt time.Time

	// UpdatedAt is bumped on any mutation.
	UpdatedAt time.Time
}
