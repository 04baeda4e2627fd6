// Package strategy implements the scheduling policies that place a
// serverless task on a (region, server-age) pair and return the full carbon
// cost breakdown for the choice.
//
// Selection is stateless: one decision per call, no shared mutable state,
// safe for concurrent use.
package strategy

import (
	"fmt"

	"github.com/gridwise/carbonsched/internal/carbon"
)

// Strategy is a closed enumeration of scheduling policies. Using a tagged
// constant instead of a string-keyed lookup makes the strategy set
// statically enumerable and turns unknown-strategy surprises into parse-time
// errors.
type Strategy int

const (
	// OperationalOnly ignores hardware age economics and always picks the
	// youngest (lowest-degradation) server and the cleanest feasible grid.
	OperationalOnly Strategy = iota

	// EmbodiedPrioritized picks the oldest server within its nominal
	// lifetime, betting on paid-off embodied carbon. It is indifferent to
	// grid carbon intensity.
	EmbodiedPrioritized

	// Balanced picks the age class nearest the midpoint of the available
	// age range and the cleanest feasible grid.
	Balanced

	// Reactive is a pass-through baseline: it does not optimize over server
	// age and schedules on current grid conditions.
	Reactive

	// Predictive is a pass-through baseline identical to Reactive here;
	// carbon-intensity forecasting is out of scope for the research core.
	Predictive
)

// All lists every strategy, in a stable order, for tests and experiment
// sweeps.
func All() []Strategy {
	return []Strategy{OperationalOnly, EmbodiedPrioritized, Balanced, Reactive, Predictive}
}

// String returns the canonical wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case OperationalOnly:
		return "operational_only"
	case EmbodiedPrioritized:
		return "embodied_prioritized"
	case Balanced:
		return "balanced"
	case Reactive:
		return "reactive"
	case Predictive:
		return "predictive"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Parse resolves a wire name to a Strategy. Unknown names are an
// InvalidParameter error, never a silent default.
func Parse(name string) (Strategy, error) {
	switch name {
	case "operational_only":
		return OperationalOnly, nil
	case "embodied_prioritized":
		return EmbodiedPrioritized, nil
	case "balanced":
		return Balanced, nil
	case "reactive":
		return Reactive, nil
	case "predictive":
		return Predictive, nil
	default:
		return 0, fmt.Errorf("%w: unknown strategy %q", carbon.ErrInvalidParameter, name)
	}
}
