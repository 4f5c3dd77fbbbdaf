package providerform

import (
	"testing"
	"time"
)

func TestNeedsConfirmation(t *testing.T) {
	tests := []struct {
		threshold int
		want      bool
	}{
		{0, true},
		{1, false},
		{5, false},
		{20, false},
		{21, true},
	}
	for _, tc := range tests {
		s := Reduce(DefaultState(), SetFailureThreshold{Value: tc.threshold})
		if got := NeedsConfirmation(s); got != tc.want {
			t.Fatalf("threshold %d: expected %v, got %v", tc.threshold, tc.want, got)
		}
	}
}

func TestDeriveTabStatus(t *testing.T) {
	status := DeriveTabStatus(DefaultState())
	if status[TabBasic] != TabStatusWarning {
		t.Fatalf("expected empty basic tab to warn, got %s", status[TabBasic])
	}
	if status[TabRouting] != TabStatusDefault || status[TabLimits] != TabStatusDefault || status[TabNetwork] != TabStatusDefault {
		t.Fatalf("expected untouched tabs to be default: %+v", status)
	}

	s := DefaultState()
	s = Reduce(s, SetName{Value: "p"})
	s = Reduce(s, SetURL{Value: "https://api.example.com"})
	s = Reduce(s, SetKey{Value: "k"})
	s = Reduce(s, SetGroupTag{Value: "cn"})
	limit := 10.0
	s = Reduce(s, SetLimitDailyUSD{Value: &limit})
	s = Reduce(s, SetProxyURL{Value: "socks5://127.0.0.1:1080"})

	status = DeriveTabStatus(s)
	for _, tab := range []Tab{TabBasic, TabRouting, TabLimits, TabNetwork} {
		if status[tab] != TabStatusConfigured {
			t.Fatalf("expected %s configured, got %s", tab, status[tab])
		}
	}
	if status[TabTesting] != TabStatusDefault {
		t.Fatalf("expected testing tab default, got %s", status[TabTesting])
	}

	s = Reduce(s, SetFailureThreshold{Value: 0})
	if got := DeriveTabStatus(s)[TabLimits]; got != TabStatusWarning {
		t.Fatalf("expected disabled breaker to warn, got %s", got)
	}
}

func TestDeriveTabStatus_EditWithoutKey(t *testing.T) {
	s := DefaultState()
	s.Mode = ModeEdit
	s = Reduce(s, SetName{Value: "p"})
	s = Reduce(s, SetURL{Value: "https://api.example.com"})
	if got := DeriveTabStatus(s)[TabBasic]; got != TabStatusConfigured {
		t.Fatalf("expected edit form without key to be fine, got %s", got)
	}
}

func TestTabTracker_ScrollInference(t *testing.T) {
	tr := NewTabTracker()
	tr.Register(TabBasic, 0)
	tr.Register(TabRouting, 400)
	tr.Register(TabLimits, 900)

	now := time.Unix(1000, 0)
	if tab, changed := tr.OnScroll(120, now); changed || tab != TabBasic {
		t.Fatalf("expected to stay on basic, got %s changed=%v", tab, changed)
	}
	if tab, changed := tr.OnScroll(380, now); !changed || tab != TabRouting {
		t.Fatalf("expected routing, got %s changed=%v", tab, changed)
	}
	if _, changed := tr.OnScroll(410, now); changed {
		t.Fatal("expected no change when the inferred tab is already active")
	}
}

func TestTabTracker_ClickSuppressesScroll(t *testing.T) {
	tr := NewTabTracker()
	tr.Register(TabBasic, 0)
	tr.Register(TabNetwork, 1200)

	now := time.Unix(1000, 0)
	offset, ok := tr.Click(TabNetwork, now)
	if !ok || offset != 1200 {
		t.Fatalf("expected offset 1200, got %v ok=%v", offset, ok)
	}

	// The smooth scroll passes over basic's anchor on its way down.
	if tab, changed := tr.OnScroll(10, now.Add(100*time.Millisecond)); changed || tab != TabNetwork {
		t.Fatalf("expected scroll to be ignored, got %s changed=%v", tab, changed)
	}
	if tab, changed := tr.OnScroll(10, now.Add(ScrollSuppression)); !changed || tab != TabBasic {
		t.Fatalf("expected inference to resume, got %s changed=%v", tab, changed)
	}

	if _, ok := tr.Click(TabTesting, now); ok {
		t.Fatal("expected unregistered tab to report no offset")
	}
}
