package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voxroute/switchboard/internal/directory"
	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/logger"
)

func TestBoardUnknownService(t *testing.T) {
	board := NewBoard(time.Minute)

	if got := board.Status("never_seen"); got != domain.StatusUnknown {
		t.Errorf("Status for unseen service = %v, want UNKNOWN", got)
	}
}

func TestBoardApplyAndRead(t *testing.T) {
	board := NewBoard(time.Minute)

	board.Apply(domain.Observation{
		Name:       "ai_svc",
		Status:     domain.StatusHealthy,
		ObservedAt: time.Now(),
	})

	if got := board.Status("ai_svc"); got != domain.StatusHealthy {
		t.Errorf("Status = %v, want HEALTHY", got)
	}
}

func TestBoardMonotonicTimestamps(t *testing.T) {
	board := NewBoard(time.Minute)
	now := time.Now()

	board.Apply(domain.Observation{Name: "ai_svc", Status: domain.StatusHealthy, ObservedAt: now})

	// An older observation must never overwrite a newer one.
	board.Apply(domain.Observation{Name: "ai_svc", Status: domain.StatusUnreachable, ObservedAt: now.Add(-time.Minute)})
	if got := board.Status("ai_svc"); got != domain.StatusHealthy {
		t.Errorf("out-of-order observation applied: Status = %v, want HEALTHY", got)
	}

	// Duplicate timestamps are tolerated (last write wins).
	board.Apply(domain.Observation{Name: "ai_svc", Status: domain.StatusDegraded, ObservedAt: now})
	if got := board.Status("ai_svc"); got != domain.StatusDegraded {
		t.Errorf("duplicate-timestamp observation dropped: Status = %v, want DEGRADED", got)
	}
}

func TestBoardStaleSnapshotReadsUnknown(t *testing.T) {
	board := NewBoard(time.Second)

	board.Apply(domain.Observation{
		Name:       "ai_svc",
		Status:     domain.StatusUnreachable,
		ObservedAt: time.Now().Add(-time.Minute),
	})

	if got := board.Status("ai_svc"); got != domain.StatusUnknown {
		t.Errorf("stale snapshot Status = %v, want UNKNOWN", got)
	}
}

func TestBoardHintsNeverBlock(t *testing.T) {
	board := NewBoard(time.Minute)

	// Overfill the hint buffer; OfferHint must drop, not block.
	for i := 0; i < DefaultHintBuffer*2; i++ {
		board.OfferHint(domain.Observation{
			Name:       "ai_svc",
			Status:     domain.StatusHealthy,
			ObservedAt: time.Now(),
		})
	}

	applied := board.DrainHints()
	if applied == 0 || applied > DefaultHintBuffer {
		t.Errorf("DrainHints applied %d, want 1..%d", applied, DefaultHintBuffer)
	}
	if got := board.Status("ai_svc"); got != domain.StatusHealthy {
		t.Errorf("Status after drain = %v, want HEALTHY", got)
	}
}

func TestProberSweep(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	degraded := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer degraded.Close()

	unreachable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable.Close() // connection refused from here on

	store := directory.NewMemoryStore()
	ctx := context.Background()
	for name, url := range map[string]string{
		"healthy_svc":     healthy.URL,
		"degraded_svc":    degraded.URL,
		"unreachable_svc": unreachable.URL,
	} {
		_ = store.Upsert(ctx, &domain.ServiceDescriptor{
			Name:         name,
			DeclaredMode: domain.ModeHybrid,
			Active:       true,
			ProbeURL:     url,
		})
	}
	// Inactive services and services without probe URLs are skipped.
	_ = store.Upsert(ctx, &domain.ServiceDescriptor{Name: "inactive_svc", Active: false, ProbeURL: healthy.URL})
	_ = store.Upsert(ctx, &domain.ServiceDescriptor{Name: "unprobed_svc", Active: true})

	board := NewBoard(time.Minute)
	prober := NewProber(store, board, time.Second, logger.New("error", false))

	if err := prober.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	cases := map[string]domain.Status{
		"healthy_svc":     domain.StatusHealthy,
		"degraded_svc":    domain.StatusDegraded,
		"unreachable_svc": domain.StatusUnreachable,
		"inactive_svc":    domain.StatusUnknown,
		"unprobed_svc":    domain.StatusUnknown,
	}
	for name, want := range cases {
		if got := board.Status(name); got != want {
			t.Errorf("%s status = %v, want %v", name, got, want)
		}
	}
}
