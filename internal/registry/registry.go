// Package registry computes the effective connection mode per service. It
// orchestrates the directory store, the health board and the decision
// cache into a single answer: how should a call to this service be routed
// right now.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voxroute/switchboard/internal/cache"
	"github.com/voxroute/switchboard/internal/directory"
	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/health"
	"github.com/voxroute/switchboard/internal/logger"
)

// Registry owns the decision cache and is the only writer to it.
type Registry struct {
	store       directory.Store
	decisions   *cache.Decisions
	board       *health.Board
	decisionTTL time.Duration
	log         logger.Logger
}

// New creates a registry. ttl <= 0 uses the cache default.
func New(store directory.Store, decisions *cache.Decisions, board *health.Board, ttl time.Duration, log logger.Logger) *Registry {
	if ttl <= 0 {
		ttl = cache.DefaultDecisionTTL
	}
	return &Registry{
		store:       store,
		decisions:   decisions,
		board:       board,
		decisionTTL: ttl,
		log:         log,
	}
}

// Resolve returns the effective connection mode for name.
//
// Cache hits are served directly. On a miss the descriptor is loaded and a
// fresh decision is computed and cached. No lock is held across the store
// round-trip: concurrent callers may each recompute, last writer wins.
//
// Unknown services resolve to DISABLED and are deliberately not cached, so
// a later registration becomes visible on the next call.
func (r *Registry) Resolve(ctx context.Context, name string) (domain.Mode, error) {
	mode, _, err := r.resolve(ctx, name)
	return mode, err
}

// GetDecision returns the full routing decision for name, computing and
// caching one if needed. Unknown services return ErrServiceNotFound.
func (r *Registry) GetDecision(ctx context.Context, name string) (domain.RoutingDecision, error) {
	_, decision, err := r.resolve(ctx, name)
	if err != nil {
		return domain.RoutingDecision{}, err
	}
	if decision == nil {
		return domain.RoutingDecision{}, domain.ErrServiceNotFound
	}
	return *decision, nil
}

func (r *Registry) resolve(ctx context.Context, name string) (domain.Mode, *domain.RoutingDecision, error) {
	if d, ok := r.decisions.Get(ctx, name); ok {
		return d.EffectiveMode, &d, nil
	}

	desc, err := r.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrServiceNotFound) {
			// Don't cache ignorance of future registrations.
			return domain.ModeDisabled, nil, nil
		}
		return domain.ModeDisabled, nil, fmt.Errorf("directory lookup for %q failed: %w", name, err)
	}

	d := r.compute(desc)
	r.decisions.Put(ctx, name, d, r.decisionTTL)
	return d.EffectiveMode, &d, nil
}

// compute derives a decision from the descriptor and the current health
// reading. Pure policy, no I/O beyond the board read.
func (r *Registry) compute(desc *domain.ServiceDescriptor) domain.RoutingDecision {
	now := time.Now()
	d := domain.RoutingDecision{
		Name:         desc.Name,
		DeclaredMode: desc.DeclaredMode,
		ComputedAt:   now,
		ExpiresAt:    now.Add(r.decisionTTL),
	}

	// Inactive wins over declared intent and over any health reading.
	if !desc.Active {
		d.EffectiveMode = domain.ModeDisabled
		return d
	}

	switch desc.DeclaredMode {
	case domain.ModeDisabled:
		d.EffectiveMode = domain.ModeDisabled

	case domain.ModeLocal:
		if desc.HasLocalHandler {
			d.EffectiveMode = domain.ModeLocal
		} else {
			// Declared intent cannot be honored without a handler;
			// degrade silently, informational log only.
			d.EffectiveMode = domain.ModeRemote
			r.log.Info("declared LOCAL without local handler, degrading to REMOTE",
				logger.String("service", desc.Name))
		}

	case domain.ModeHybrid:
		if !desc.HasLocalHandler {
			d.EffectiveMode = domain.ModeRemote
			break
		}
		status := r.board.Status(desc.Name)
		d.HealthStatus = status
		switch status {
		case domain.StatusHealthy, domain.StatusUnknown:
			// Unknown is not-yet-proven-bad; stay optimistic.
			d.EffectiveMode = domain.ModeLocal
		default:
			// Fail away from the local path.
			d.EffectiveMode = domain.ModeRemote
		}

	default: // REMOTE, and any unparseable stored mode
		d.EffectiveMode = domain.ModeRemote
	}

	return d
}

// Register adds a service at the registration boundary. New services start
// REMOTE and active; declared mode changes are a separate administrative
// step. Re-registering an existing name is an error.
func (r *Registry) Register(ctx context.Context, name, displayName string, hasLocalHandler bool, probeURL string) error {
	if name == "" {
		return errors.New("service name must not be empty")
	}
	if _, err := r.store.Get(ctx, name); err == nil {
		return fmt.Errorf("service %q already registered", name)
	} else if !errors.Is(err, domain.ErrServiceNotFound) {
		return err
	}

	desc := &domain.ServiceDescriptor{
		Name:            name,
		DisplayName:     displayName,
		DeclaredMode:    domain.ModeRemote,
		HasLocalHandler: hasLocalHandler,
		Active:          true,
		ProbeURL:        probeURL,
	}
	if err := r.store.Upsert(ctx, desc); err != nil {
		return fmt.Errorf("failed to register %q: %w", name, err)
	}

	r.log.Info("service registered",
		logger.String("service", name),
		logger.Bool("has_local_handler", hasLocalHandler))
	return nil
}

// UpdateDeclaredMode writes the new mode through to the directory, then
// synchronously invalidates the cached decision. Any Resolve that starts
// after this returns recomputes from the new mode. Idempotent and safe to
// run concurrently with Resolve.
func (r *Registry) UpdateDeclaredMode(ctx context.Context, name string, mode domain.Mode) error {
	if !mode.IsDeclarable() {
		return fmt.Errorf("invalid connection mode %q", mode)
	}

	desc, err := r.store.Get(ctx, name)
	if err != nil {
		return err
	}

	desc.DeclaredMode = mode
	if err := r.store.Upsert(ctx, desc); err != nil {
		return fmt.Errorf("failed to update mode for %q: %w", name, err)
	}

	// Remove-before-return: the invalidation completes before the caller
	// observes success.
	r.decisions.Invalidate(ctx, name)

	r.log.Info("declared mode updated",
		logger.String("service", name),
		logger.String("mode", string(mode)))
	return nil
}

// SetActive flips the soft-disable flag and invalidates the decision.
func (r *Registry) SetActive(ctx context.Context, name string, active bool) error {
	if err := r.store.SetActive(ctx, name, active); err != nil {
		return err
	}
	r.decisions.Invalidate(ctx, name)

	r.log.Info("service active flag updated",
		logger.String("service", name),
		logger.Bool("active", active))
	return nil
}

// BulkResult aggregates the per-name outcomes of a bulk mode update.
type BulkResult struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// BulkUpdate applies UpdateDeclaredMode per entry. One bad name never
// aborts the batch; failures are collected into the result.
func (r *Registry) BulkUpdate(ctx context.Context, updates map[string]domain.Mode) BulkResult {
	res := BulkResult{
		Updated: make([]string, 0, len(updates)),
		Failed:  make(map[string]string),
	}
	for name, mode := range updates {
		if err := r.UpdateDeclaredMode(ctx, name, mode); err != nil {
			res.Failed[name] = err.Error()
			continue
		}
		res.Updated = append(res.Updated, name)
	}
	if len(res.Failed) == 0 {
		res.Failed = nil
	}
	return res
}

// MigrateFromGlobalFlag converts the legacy all-services toggle into
// per-service declared modes: LOCAL where the flag is on and a local
// handler exists, REMOTE everywhere else. Idempotent and re-runnable; the
// returned plan maps each applied service to its resulting mode for
// audit. One failing service never aborts the rest: the plan reports
// what was applied and the error aggregates what was not, so a re-run
// picks up the leftovers.
func (r *Registry) MigrateFromGlobalFlag(ctx context.Context, globalFlag bool) (map[string]domain.Mode, error) {
	descs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services for migration: %w", err)
	}

	plan := make(map[string]domain.Mode, len(descs))
	var failures []error
	for _, desc := range descs {
		mode := domain.ModeRemote
		if globalFlag && desc.HasLocalHandler {
			mode = domain.ModeLocal
		}
		if err := r.UpdateDeclaredMode(ctx, desc.Name, mode); err != nil {
			failures = append(failures, fmt.Errorf("migration failed at %q: %w", desc.Name, err))
			continue
		}
		plan[desc.Name] = mode
	}

	r.log.Info("global flag migration applied",
		logger.Bool("global_flag", globalFlag),
		logger.Int("services", len(plan)),
		logger.Int("failed", len(failures)))
	return plan, errors.Join(failures...)
}

// InvalidateDecision drops the cached decision for one service. Used by
// the administrative boundary and by the proxy after a local-path crash.
func (r *Registry) InvalidateDecision(ctx context.Context, name string) {
	r.decisions.Invalidate(ctx, name)
}

// InvalidateAll drops every cached decision.
func (r *Registry) InvalidateAll(ctx context.Context) {
	r.decisions.InvalidateAll(ctx)
}

// CacheStats returns decision cache counters.
func (r *Registry) CacheStats() cache.Stats {
	return r.decisions.Stats()
}

// List returns every registered descriptor (admin boundary).
func (r *Registry) List(ctx context.Context) ([]*domain.ServiceDescriptor, error) {
	return r.store.List(ctx)
}
