// Package character resolves what an animated character is doing on a given
// frame: which discrete animation state is active, how far into that state's
// clip playback is, and where the character stands.
package character

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// State is a discrete animation state.
type State int

const (
	// Idle is the resting loop shown when nothing else is active.
	Idle State = iota

	// Walking plays while the character follows its path.
	Walking

	// Talking plays during voiceover lines.
	Talking

	// Waving plays during greeting windows.
	Waving

	numStates
)

// Order lists states from highest to lowest priority. Select returns the
// first state in Order whose signal is set; adding a state means adding it
// here.
var Order = [...]State{Waving, Talking, Walking, Idle}

var stateNames = [...]string{
	Idle:    "idle",
	Walking: "walking",
	Talking: "talking",
	Waving:  "waving",
}

// String returns the state name used in scene files and the API.
func (s State) String() string {
	if s < 0 || s >= numStates {
		return "unknown"
	}
	return stateNames[s]
}

// Priority returns the rank of s in Order (0 = highest), or -1.
func (s State) Priority() int {
	for i, o := range Order {
		if o == s {
			return i
		}
	}
	return -1
}

// States returns all states in declaration order.
func States() []State {
	out := make([]State, 0, numStates)
	for s := State(0); s < numStates; s++ {
		out = append(out, s)
	}
	return out
}

// ParseState parses a state name (case-insensitive).
func ParseState(name string) (State, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s := State(0); s < numStates; s++ {
		if stateNames[s] == n {
			return s, nil
		}
	}
	return Idle, fmt.Errorf("%w: unknown state %q", timeline.ErrInvalidConfig, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Signals is the set of states requested on one frame.
type Signals uint8

// NewSignals builds the signal set from the three boolean inputs.
func NewSignals(waving, talking, walking bool) Signals {
	var sig Signals
	if waving {
		sig = sig.With(Waving)
	}
	if talking {
		sig = sig.With(Talking)
	}
	if walking {
		sig = sig.With(Walking)
	}
	return sig
}

// With returns the set with s added.
func (sig Signals) With(s State) Signals {
	return sig | 1<<uint(s)
}

// Has reports whether s is requested.
func (sig Signals) Has(s State) bool {
	return sig&(1<<uint(s)) != 0
}

// Select resolves the active state: the highest-priority requested state,
// or Idle. Nothing is remembered between calls.
func Select(sig Signals) State {
	for _, s := range Order {
		if s == Idle || sig.Has(s) {
			return s
		}
	}
	return Idle
}
