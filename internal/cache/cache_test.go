package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/logger"
)

func testDecision(name string, mode domain.Mode, ttl time.Duration) domain.RoutingDecision {
	now := time.Now()
	return domain.RoutingDecision{
		Name:          name,
		EffectiveMode: mode,
		ComputedAt:    now,
		ExpiresAt:     now.Add(ttl),
	}
}

func TestDecisionsGetMiss(t *testing.T) {
	c := NewDecisions(time.Minute, nil, logger.New("error", false))

	if _, ok := c.Get(context.Background(), "ai_svc"); ok {
		t.Error("empty cache should miss")
	}
	if s := c.Stats(); s.Misses != 1 {
		t.Errorf("Misses = %d, want 1", s.Misses)
	}
}

func TestDecisionsPutGet(t *testing.T) {
	c := NewDecisions(time.Minute, nil, logger.New("error", false))
	ctx := context.Background()

	d := testDecision("ai_svc", domain.ModeLocal, time.Minute)
	c.Put(ctx, "ai_svc", d, time.Minute)

	got, ok := c.Get(ctx, "ai_svc")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.EffectiveMode != domain.ModeLocal {
		t.Errorf("EffectiveMode = %v, want LOCAL", got.EffectiveMode)
	}
	if s := c.Stats(); s.Hits != 1 || s.Entries != 1 {
		t.Errorf("Stats = %+v, want 1 hit, 1 entry", s)
	}
}

func TestDecisionsExpiredEntryMisses(t *testing.T) {
	c := NewDecisions(time.Minute, nil, logger.New("error", false))
	ctx := context.Background()

	d := testDecision("ai_svc", domain.ModeLocal, -time.Second) // already expired
	c.Put(ctx, "ai_svc", d, time.Minute)

	if _, ok := c.Get(ctx, "ai_svc"); ok {
		t.Error("expired decision must not be served")
	}
}

func TestDecisionsInvalidateHappensBefore(t *testing.T) {
	c := NewDecisions(time.Minute, nil, logger.New("error", false))
	ctx := context.Background()

	c.Put(ctx, "ai_svc", testDecision("ai_svc", domain.ModeLocal, time.Minute), time.Minute)
	c.Invalidate(ctx, "ai_svc")

	// The next Get is guaranteed to miss: no stale read survives an
	// explicit invalidation.
	if _, ok := c.Get(ctx, "ai_svc"); ok {
		t.Error("Get after Invalidate returned a stale decision")
	}
}

func TestDecisionsInvalidateAll(t *testing.T) {
	c := NewDecisions(time.Minute, nil, logger.New("error", false))
	ctx := context.Background()

	c.Put(ctx, "a_svc", testDecision("a_svc", domain.ModeLocal, time.Minute), time.Minute)
	c.Put(ctx, "b_svc", testDecision("b_svc", domain.ModeRemote, time.Minute), time.Minute)
	c.InvalidateAll(ctx)

	if _, ok := c.Get(ctx, "a_svc"); ok {
		t.Error("a_svc survived InvalidateAll")
	}
	if _, ok := c.Get(ctx, "b_svc"); ok {
		t.Error("b_svc survived InvalidateAll")
	}
}

// failingTier simulates a dead cache backend: every operation is a no-op
// and every read misses.
type failingTier struct{}

func (failingTier) Get(context.Context, string) (domain.RoutingDecision, bool) {
	return domain.RoutingDecision{}, false
}
func (failingTier) Put(context.Context, string, domain.RoutingDecision, time.Duration) {}
func (failingTier) Delete(context.Context, string)                                     {}
func (failingTier) DeleteAll(context.Context)                                          {}

func TestDecisionsDeadRemoteTierDegradesToMemory(t *testing.T) {
	c := NewDecisions(time.Minute, failingTier{}, logger.New("error", false))
	ctx := context.Background()

	c.Put(ctx, "ai_svc", testDecision("ai_svc", domain.ModeRemote, time.Minute), time.Minute)

	// The memory tier still serves; the dead backend never crashes the caller.
	if _, ok := c.Get(ctx, "ai_svc"); !ok {
		t.Error("memory tier should serve despite dead remote tier")
	}
	c.Invalidate(ctx, "ai_svc")
	if _, ok := c.Get(ctx, "ai_svc"); ok {
		t.Error("invalidation should still work with a dead remote tier")
	}
}

// recordingTier records puts so the repopulation path can be asserted.
type recordingTier struct {
	mu      sync.Mutex
	entries map[string]domain.RoutingDecision
}

func newRecordingTier() *recordingTier {
	return &recordingTier{entries: make(map[string]domain.RoutingDecision)}
}

func (r *recordingTier) Get(_ context.Context, name string) (domain.RoutingDecision, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.entries[name]
	return d, ok
}

func (r *recordingTier) Put(_ context.Context, name string, d domain.RoutingDecision, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = d
}

func (r *recordingTier) Delete(_ context.Context, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

func (r *recordingTier) DeleteAll(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]domain.RoutingDecision)
}

func TestDecisionsRemoteTierServesCrossProcessHit(t *testing.T) {
	remote := newRecordingTier()
	ctx := context.Background()

	// Another process populated the shared tier.
	remote.Put(ctx, "ai_svc", testDecision("ai_svc", domain.ModeLocal, time.Minute), time.Minute)

	c := NewDecisions(time.Minute, remote, logger.New("error", false))
	got, ok := c.Get(ctx, "ai_svc")
	if !ok {
		t.Fatal("expected a hit from the remote tier")
	}
	if got.EffectiveMode != domain.ModeLocal {
		t.Errorf("EffectiveMode = %v, want LOCAL", got.EffectiveMode)
	}
}

func TestDecisionsInvalidateReachesRemoteTier(t *testing.T) {
	remote := newRecordingTier()
	ctx := context.Background()

	c := NewDecisions(time.Minute, remote, logger.New("error", false))
	c.Put(ctx, "ai_svc", testDecision("ai_svc", domain.ModeLocal, time.Minute), time.Minute)
	c.Invalidate(ctx, "ai_svc")

	if _, ok := remote.Get(ctx, "ai_svc"); ok {
		t.Error("Invalidate must remove the entry from the remote tier too")
	}
}

func TestDecisionsConcurrentAccess(t *testing.T) {
	c := NewDecisions(time.Minute, nil, logger.New("error", false))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Put(ctx, "ai_svc", testDecision("ai_svc", domain.ModeLocal, time.Minute), time.Minute)
				c.Get(ctx, "ai_svc")
				c.Invalidate(ctx, "ai_svc")
			}
		}()
	}
	wg.Wait()
}
