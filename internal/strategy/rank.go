package strategy

import (
	"context"
	"math"
	"sort"

	"github.com/gridwise/carbonsched/internal/carbon"
)

// Candidate is one scored (region, age-class) combination from a ranking
// pass. The dashboard exposes rankings so a reader can see the alternatives
// a decision was weighed against.
type Candidate struct {
	Region                 string              `json:"region"`
	AgeClass               string              `json:"server_age"`
	AgeYears               float64             `json:"server_age_years"`
	CarbonIntensityGPerKWh float64             `json:"carbon_intensity_g_per_kwh"`
	LatencyMs              float64             `json:"latency_ms"`
	CostFactor             float64             `json:"cost_factor"`
	Available              int                 `json:"available_servers"`
	Score                  float64             `json:"score"`
	Result                 carbon.CarbonResult `json:"result"`
}

// Rank scores every feasible (region, age-class) combination under the
// strategy's weighting and returns them ordered best-first. Lower scores are
// better.
//
// The weights reproduce the research scoring functions:
//
//	embodied_prioritized: 0.40*total + 0.30*(debt*1000) + 0.20*(latency/1000) + 0.10*cost
//	balanced:             0.35*operational + 0.35*embodied + 0.20*(latency/1000) + 0.10*cost
//	others:               0.70*operational + 0.20*(latency/1000) + 0.10*cost
func (s *Selector) Rank(ctx context.Context, task carbon.Task, strat Strategy, fleet Fleet) ([]Candidate, error) {
	if task.DurationSeconds <= 0 || task.SLAMs <= 0 {
		return nil, carbon.ErrInvalidParameter
	}
	if err := fleet.Validate(); err != nil {
		return nil, err
	}

	feasible, err := s.feasible(ctx, task, fleet)
	if err != nil {
		return nil, err
	}

	lifetime := s.model.Config().ExpectedLifetimeYears
	var candidates []Candidate
	for _, fr := range feasible {
		grid := carbon.GridContext{CarbonIntensityGPerKWh: fr.ci, PUE: s.pue}
		for _, ac := range fr.region.availableClasses() {
			evalAge := math.Min(ac.AgeYears, lifetime)
			result, err := s.model.Evaluate(s.model.Config().Profile(evalAge), grid, task)
			if err != nil {
				return nil, err
			}

			score, err := score(strat, fr.region, result)
			if err != nil {
				return nil, err
			}

			candidates = append(candidates, Candidate{
				Region:                 fr.region.Name,
				AgeClass:               ac.Name,
				AgeYears:               ac.AgeYears,
				CarbonIntensityGPerKWh: fr.ci,
				LatencyMs:              fr.region.LatencyMs,
				CostFactor:             fr.region.CostFactor,
				Available:              ac.Available,
				Score:                  score,
				Result:                 result,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.AgeYears < b.AgeYears
	})

	return candidates, nil
}

func score(strat Strategy, region Region, result carbon.CarbonResult) (float64, error) {
	latencyTerm := region.LatencyMs / 1000.0

	switch strat {
	case EmbodiedPrioritized:
		return 0.40*result.TotalCO2G +
			0.30*(result.DebtRatio*1000) +
			0.20*latencyTerm +
			0.10*region.CostFactor, nil

	case Balanced:
		return 0.35*result.OperationalCO2G +
			0.35*result.EmbodiedCO2G +
			0.20*latencyTerm +
			0.10*region.CostFactor, nil

	case OperationalOnly, Reactive, Predictive:
		return 0.70*result.OperationalCO2G +
			0.20*latencyTerm +
			0.10*region.CostFactor, nil

	default:
		return 0, carbon.ErrInvalidParameter
	}
}
