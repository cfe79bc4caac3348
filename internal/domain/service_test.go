package domain

import (
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"local", ModeLocal, false},
		{"LOCAL", ModeLocal, false},
		{"router", ModeLocal, false},
		{"remote", ModeRemote, false},
		{"rest", ModeRemote, false},
		{"hybrid", ModeHybrid, false},
		{"HYBRID", ModeHybrid, false},
		{"disabled", ModeDisabled, false},
		{"  remote  ", ModeRemote, false},
		{"", "", true},
		{"fastest", "", true},
		{"grpc", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestModeIsDeclarable(t *testing.T) {
	for _, m := range []Mode{ModeLocal, ModeRemote, ModeHybrid, ModeDisabled} {
		if !m.IsDeclarable() {
			t.Errorf("%v should be declarable", m)
		}
	}
	if Mode("FASTEST").IsDeclarable() {
		t.Error("arbitrary mode should not be declarable")
	}
}

func TestHealthSnapshotEffectiveStatus(t *testing.T) {
	now := time.Now()

	fresh := HealthSnapshot{Status: StatusHealthy, ObservedAt: now.Add(-10 * time.Second), StaleAfter: time.Minute}
	if got := fresh.EffectiveStatus(now); got != StatusHealthy {
		t.Errorf("fresh snapshot = %v, want HEALTHY", got)
	}

	stale := HealthSnapshot{Status: StatusDegraded, ObservedAt: now.Add(-5 * time.Minute), StaleAfter: time.Minute}
	if got := stale.EffectiveStatus(now); got != StatusUnknown {
		t.Errorf("stale snapshot = %v, want UNKNOWN", got)
	}

	// Zero StaleAfter falls back to the default window.
	zero := HealthSnapshot{Status: StatusHealthy, ObservedAt: now.Add(-30 * time.Second)}
	if got := zero.EffectiveStatus(now); got != StatusHealthy {
		t.Errorf("snapshot within default window = %v, want HEALTHY", got)
	}

	var empty HealthSnapshot
	if got := empty.EffectiveStatus(now); got != StatusUnknown {
		t.Errorf("empty snapshot = %v, want UNKNOWN", got)
	}
}

func TestRoutingDecisionExpired(t *testing.T) {
	now := time.Now()
	d := RoutingDecision{ComputedAt: now, ExpiresAt: now.Add(5 * time.Minute)}
	if d.Expired(now) {
		t.Error("fresh decision should not be expired")
	}
	if !d.Expired(now.Add(6 * time.Minute)) {
		t.Error("decision past TTL should be expired")
	}
}
