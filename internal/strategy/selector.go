package strategy

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gridwise/carbonsched/internal/carbon"
	"github.com/gridwise/carbonsched/internal/gridci"
)

// Decision is one placement choice with the cost breakdown that justifies
// it, so callers can audit why a given total was produced.
type Decision struct {
	Strategy               string             `json:"strategy"`
	Region                 string             `json:"region"`
	AgeClass               string             `json:"server_age"`
	AgeYears               float64            `json:"server_age_years"`
	CarbonIntensityGPerKWh float64            `json:"carbon_intensity_g_per_kwh"`
	LatencyMs              float64            `json:"latency_ms"`
	CostFactor             float64            `json:"cost_factor"`
	PUE                    float64            `json:"pue"`
	Result                 carbon.CarbonResult `json:"result"`
}

// Selector places tasks on (region, age-class) pairs according to a
// Strategy and evaluates the choice with the carbon cost model. A Selector
// is immutable after construction and safe for concurrent use.
type Selector struct {
	model  *carbon.Model
	source gridci.Source
	pue    float64
	logger zerolog.Logger
}

// NewSelector builds a Selector around the given cost model, carbon
// intensity source, and data-center PUE.
func NewSelector(model *carbon.Model, source gridci.Source, pue float64, logger zerolog.Logger) (*Selector, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", carbon.ErrInvalidParameter)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: carbon intensity source is required", carbon.ErrInvalidParameter)
	}
	if pue < 1.0 {
		return nil, fmt.Errorf("%w: PUE must be >= 1.0, got %g", carbon.ErrInvalidParameter, pue)
	}
	return &Selector{model: model, source: source, pue: pue, logger: logger}, nil
}

// feasibleRegion pairs a region with its carbon intensity at decision time.
type feasibleRegion struct {
	region Region
	ci     float64
}

// Select resolves a concrete placement for the task under the given
// strategy and returns it together with the cost model's evaluation.
//
// Region policy: regions failing the SLA latency bound (or without
// capacity) are filtered first; if none survive, ErrNoFeasibleRegion is
// returned rather than silently picking an infeasible region.
// OperationalOnly, Balanced, and the baselines then take the region with the
// lowest carbon intensity; EmbodiedPrioritized is indifferent to grid
// intensity and takes the feasible region hosting the oldest usable
// hardware. All ties break deterministically by region name.
func (s *Selector) Select(ctx context.Context, task carbon.Task, strat Strategy, fleet Fleet) (Decision, error) {
	if task.DurationSeconds <= 0 {
		return Decision{}, fmt.Errorf("%w: task duration must be positive, got %gs", carbon.ErrInvalidParameter, task.DurationSeconds)
	}
	if task.SLAMs <= 0 {
		return Decision{}, fmt.Errorf("%w: task SLA must be positive, got %gms", carbon.ErrInvalidParameter, task.SLAMs)
	}
	if err := fleet.Validate(); err != nil {
		return Decision{}, err
	}

	feasible, err := s.feasible(ctx, task, fleet)
	if err != nil {
		return Decision{}, err
	}

	chosen, err := s.pickRegion(strat, feasible)
	if err != nil {
		return Decision{}, err
	}

	class, err := pickAgeClass(strat, chosen.region.availableClasses(), s.model.Config().ExpectedLifetimeYears)
	if err != nil {
		return Decision{}, err
	}

	// Ages past nominal lifetime are clamped to the lifetime bound for
	// evaluation: the server contributes zero further embodied attribution
	// and its power draw already sits on the degradation cap.
	evalAge := math.Min(class.AgeYears, s.model.Config().ExpectedLifetimeYears)

	grid := carbon.GridContext{CarbonIntensityGPerKWh: chosen.ci, PUE: s.pue}
	result, err := s.model.Evaluate(s.model.Config().Profile(evalAge), grid, task)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Strategy:               strat.String(),
		Region:                 chosen.region.Name,
		AgeClass:               class.Name,
		AgeYears:               class.AgeYears,
		CarbonIntensityGPerKWh: chosen.ci,
		LatencyMs:              chosen.region.LatencyMs,
		CostFactor:             chosen.region.CostFactor,
		PUE:                    s.pue,
		Result:                 result,
	}

	s.logger.Debug().
		Str("strategy", decision.Strategy).
		Str("region", decision.Region).
		Str("server_age", decision.AgeClass).
		Float64("total_co2_g", result.TotalCO2G).
		Msg("placement selected")

	return decision, nil
}

// feasible filters the fleet down to regions that satisfy the SLA and have
// capacity, resolving each survivor's carbon intensity once.
func (s *Selector) feasible(ctx context.Context, task carbon.Task, fleet Fleet) ([]feasibleRegion, error) {
	var out []feasibleRegion
	for _, region := range fleet.Regions {
		if region.LatencyMs > task.SLAMs {
			continue
		}
		if len(region.availableClasses()) == 0 {
			continue
		}
		out = append(out, feasibleRegion{
			region: region,
			ci:     s.source.IntensityGPerKWh(ctx, region.Name),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no region meets SLA %gms with available capacity", ErrNoFeasibleRegion, task.SLAMs)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].region.Name < out[j].region.Name })
	return out, nil
}

func (s *Selector) pickRegion(strat Strategy, feasible []feasibleRegion) (feasibleRegion, error) {
	switch strat {
	case OperationalOnly, Balanced, Reactive, Predictive:
		best := feasible[0]
		for _, fr := range feasible[1:] {
			if fr.ci < best.ci {
				best = fr
			}
		}
		return best, nil

	case EmbodiedPrioritized:
		lifetime := s.model.Config().ExpectedLifetimeYears
		best := feasible[0]
		bestAge, err := pickAgeClass(strat, best.region.availableClasses(), lifetime)
		if err != nil {
			return feasibleRegion{}, err
		}
		for _, fr := range feasible[1:] {
			age, err := pickAgeClass(strat, fr.region.availableClasses(), lifetime)
			if err != nil {
				return feasibleRegion{}, err
			}
			if embodiedPreferred(age, bestAge, lifetime) {
				best, bestAge = fr, age
			}
		}
		return best, nil

	default:
		return feasibleRegion{}, fmt.Errorf("%w: unknown strategy %d", carbon.ErrInvalidParameter, int(strat))
	}
}

// embodiedPreferred reports whether candidate beats incumbent under the
// embodied-prioritized preference: within-lifetime hardware first, then
// maximal age; past-lifetime hardware only as a last resort, closest to the
// lifetime bound first.
func embodiedPreferred(candidate, incumbent AgeClass, lifetime float64) bool {
	cWithin := candidate.AgeYears <= lifetime
	iWithin := incumbent.AgeYears <= lifetime
	if cWithin != iWithin {
		return cWithin
	}
	if cWithin {
		return candidate.AgeYears > incumbent.AgeYears
	}
	return candidate.AgeYears < incumbent.AgeYears
}

// pickAgeClass applies the strategy's age policy to the available classes.
// The switch is exhaustive over the Strategy enum.
func pickAgeClass(strat Strategy, classes []AgeClass, lifetime float64) (AgeClass, error) {
	if len(classes) == 0 {
		return AgeClass{}, fmt.Errorf("%w: region has no available servers", ErrNoFeasibleRegion)
	}

	switch strat {
	case OperationalOnly:
		best := classes[0]
		for _, ac := range classes[1:] {
			if ac.AgeYears < best.AgeYears {
				best = ac
			}
		}
		return best, nil

	case EmbodiedPrioritized:
		best := classes[0]
		for _, ac := range classes[1:] {
			if embodiedPreferred(ac, best, lifetime) {
				best = ac
			}
		}
		return best, nil

	case Balanced:
		minAge, maxAge := classes[0].AgeYears, classes[0].AgeYears
		for _, ac := range classes[1:] {
			minAge = math.Min(minAge, ac.AgeYears)
			maxAge = math.Max(maxAge, ac.AgeYears)
		}
		mid := (minAge + maxAge) / 2

		best := classes[0]
		bestDist := math.Abs(best.AgeYears - mid)
		for _, ac := range classes[1:] {
			dist := math.Abs(ac.AgeYears - mid)
			if dist < bestDist || (dist == bestDist && ac.AgeYears < best.AgeYears) {
				best, bestDist = ac, dist
			}
		}
		return best, nil

	case Reactive, Predictive:
		// Baselines do not optimize over server age: they take the
		// region's first-listed pool as given.
		return classes[0], nil

	default:
		return AgeClass{}, fmt.Errorf("%w: unknown strategy %d", carbon.ErrInvalidParameter, int(strat))
	}
}
