// Package cache implements the routing decision cache: a fast in-memory
// tier (per process) with an optional shared remote tier. Explicit
// invalidation is synchronous, so a Get issued after Invalidate returns
// can never see the removed entry.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/logger"
)

const (
	// DefaultDecisionTTL is the default lifetime of a cached routing decision.
	DefaultDecisionTTL = 5 * time.Minute
	// CleanupInterval is how often the memory tier sweeps expired entries.
	CleanupInterval = time.Minute
)

// RemoteTier is an optional shared cache backend. Implementations must
// treat backend failure as a miss, never as a fatal condition.
type RemoteTier interface {
	Get(ctx context.Context, name string) (domain.RoutingDecision, bool)
	Put(ctx context.Context, name string, d domain.RoutingDecision, ttl time.Duration)
	Delete(ctx context.Context, name string)
	DeleteAll(ctx context.Context)
}

// Stats exposes cache effectiveness counters for the admin API.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
	Entries       int   `json:"entries"`
}

// Decisions caches routing decisions by service name.
type Decisions struct {
	mem        *gocache.Cache
	remote     RemoteTier // nil when no shared tier is configured
	defaultTTL time.Duration
	log        logger.Logger

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
}

// NewDecisions creates a decision cache. remote may be nil.
func NewDecisions(defaultTTL time.Duration, remote RemoteTier, log logger.Logger) *Decisions {
	if defaultTTL <= 0 {
		defaultTTL = DefaultDecisionTTL
	}
	return &Decisions{
		mem:        gocache.New(defaultTTL, CleanupInterval),
		remote:     remote,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

// Get returns the cached decision for name, or ok=false on a miss. Expired
// entries are misses.
func (c *Decisions) Get(ctx context.Context, name string) (domain.RoutingDecision, bool) {
	if v, found := c.mem.Get(name); found {
		d := v.(domain.RoutingDecision)
		if !d.Expired(time.Now()) {
			c.hits.Add(1)
			return d, true
		}
	}

	if c.remote != nil {
		if d, found := c.remote.Get(ctx, name); found && !d.Expired(time.Now()) {
			// Repopulate the memory tier for the remaining lifetime.
			c.mem.Set(name, d, time.Until(d.ExpiresAt))
			c.hits.Add(1)
			return d, true
		}
	}

	c.misses.Add(1)
	return domain.RoutingDecision{}, false
}

// Put stores a decision under name. A ttl <= 0 uses the cache default.
// Concurrent writers race last-writer-wins; duplicate recomputation is
// acceptable, blocking is not.
func (c *Decisions) Put(ctx context.Context, name string, d domain.RoutingDecision, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mem.Set(name, d, ttl)
	if c.remote != nil {
		c.remote.Put(ctx, name, d, ttl)
	}
}

// Invalidate removes the decision for name. The removal completes before
// Invalidate returns.
func (c *Decisions) Invalidate(ctx context.Context, name string) {
	c.mem.Delete(name)
	if c.remote != nil {
		c.remote.Delete(ctx, name)
	}
	c.invalidations.Add(1)
}

// InvalidateAll drops every cached decision.
func (c *Decisions) InvalidateAll(ctx context.Context) {
	c.mem.Flush()
	if c.remote != nil {
		c.remote.DeleteAll(ctx)
	}
	c.invalidations.Add(1)
}

// Stats returns a snapshot of the cache counters.
func (c *Decisions) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       c.mem.ItemCount(),
	}
}
