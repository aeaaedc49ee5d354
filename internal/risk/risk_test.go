package risk

import "testing"

func TestAllowNotional(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 50}
	if !limits.Allow(49.9, 0) {
		t.Fatalf("expected notional under limit to pass")
	}
	if limits.Allow(50.1, 0) {
		t.Fatalf("expected notional above limit to fail")
	}
}

func TestAllowPendingCap(t *testing.T) {
	limits := Limits{MaxPendingPerUser: 2}
	if !limits.Allow(10, 1) {
		t.Fatalf("expected user under pending cap to pass")
	}
	if limits.Allow(10, 2) {
		t.Fatalf("expected user at pending cap to fail")
	}
}

func TestZeroLimitsUnbounded(t *testing.T) {
	limits := Limits{}
	if !limits.Allow(1e9, 1000) {
		t.Fatalf("expected zero-valued limits to allow everything")
	}
}
