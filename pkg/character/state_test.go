package character

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

func TestSelect_Priority(t *testing.T) {
	tests := []struct {
		waving, talking, walking bool
		want                     State
	}{
		{true, true, true, Waving},
		{true, false, false, Waving},
		{false, true, true, Talking},
		{false, true, false, Talking},
		{false, false, true, Walking},
		{false, false, false, Idle},
		{true, false, true, Waving},
	}

	for _, tc := range tests {
		got := Select(NewSignals(tc.waving, tc.talking, tc.walking))
		if got != tc.want {
			t.Errorf("Select(waving=%v, talking=%v, walking=%v) = %s, want %s",
				tc.waving, tc.talking, tc.walking, got, tc.want)
		}
	}
}

func TestSelect_NoHysteresis(t *testing.T) {
	talking := NewSignals(false, true, false)
	quiet := NewSignals(false, false, false)

	if Select(talking) != Talking {
		t.Fatal("expected Talking")
	}
	if Select(quiet) != Idle {
		t.Error("a single quiet frame must flip straight back to Idle")
	}
	if Select(talking) != Talking {
		t.Error("expected Talking again")
	}
}

func TestOrder_IsTotal(t *testing.T) {
	seen := make(map[State]bool)
	for i, s := range Order {
		if seen[s] {
			t.Errorf("state %s listed twice", s)
		}
		seen[s] = true
		if s.Priority() != i {
			t.Errorf("%s.Priority() = %d, want %d", s, s.Priority(), i)
		}
	}
	for _, s := range States() {
		if !seen[s] {
			t.Errorf("state %s missing from Order", s)
		}
	}
	if Order[len(Order)-1] != Idle {
		t.Error("Idle must be the lowest priority")
	}
}

func TestParseState(t *testing.T) {
	for _, s := range States() {
		got, err := ParseState(s.String())
		if err != nil {
			t.Fatalf("ParseState(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("ParseState(%q) = %s", s, got)
		}
	}

	if got, _ := ParseState("  Talking "); got != Talking {
		t.Errorf("ParseState should trim and ignore case, got %s", got)
	}

	_, err := ParseState("dancing")
	if !errors.Is(err, timeline.ErrInvalidConfig) {
		t.Errorf("ParseState(dancing) error = %v, want ErrInvalidConfig", err)
	}

	if State(42).String() != "unknown" {
		t.Error("out-of-range state should print unknown")
	}
}

func TestSignals(t *testing.T) {
	var sig Signals
	if sig.Has(Talking) {
		t.Error("empty set has Talking")
	}
	sig = sig.With(Talking).With(Waving)
	if !sig.Has(Talking) || !sig.Has(Waving) || sig.Has(Walking) {
		t.Errorf("unexpected set %08b", sig)
	}
}
