package experiment

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/gridwise/carbonsched/internal/carbon"
	"github.com/gridwise/carbonsched/internal/strategy"
)

// PenaltyPoint compares the total emissions of the embodied-prioritized and
// operational-only placements for one task duration.
type PenaltyPoint struct {
	DurationSeconds       float64 `json:"duration_s"`
	OperationalOnlyTotalG float64 `json:"operational_only_total_g"`
	EmbodiedTotalG        float64 `json:"embodied_prioritized_total_g"`

	// PenaltyRatio is (embodied - operational_only) / operational_only.
	// Under linear amortization it is near-constant across durations; that
	// flatness is the finding the sweep exists to demonstrate.
	PenaltyRatio float64 `json:"penalty_ratio"`
}

// PenaltySummary aggregates a sensitivity sweep.
type PenaltySummary struct {
	MeanRatio   float64 `json:"mean_ratio"`
	StdDevRatio float64 `json:"stddev_ratio"`

	// MaxSpread is the largest absolute deviation of any point from the
	// mean, as a fraction of the mean. A crossover would show up here as a
	// sign change or a large spread.
	MaxSpread float64 `json:"max_spread"`
}

// DurationSensitivity sweeps task durations and records the strategy
// penalty at each.
func (r *Runner) DurationSensitivity(ctx context.Context, durations []float64) ([]PenaltyPoint, error) {
	if len(durations) == 0 {
		return nil, fmt.Errorf("%w: no durations to sweep", carbon.ErrInvalidParameter)
	}

	points := make([]PenaltyPoint, 0, len(durations))
	for _, dur := range durations {
		task := carbon.Task{DurationSeconds: dur, SLAMs: r.scenario.SLAMs}

		opOnly, err := r.selector.Select(ctx, task, strategy.OperationalOnly, r.scenario.Fleet)
		if err != nil {
			return nil, err
		}
		embodied, err := r.selector.Select(ctx, task, strategy.EmbodiedPrioritized, r.scenario.Fleet)
		if err != nil {
			return nil, err
		}

		point := PenaltyPoint{
			DurationSeconds:       dur,
			OperationalOnlyTotalG: opOnly.Result.TotalCO2G,
			EmbodiedTotalG:        embodied.Result.TotalCO2G,
		}
		if opOnly.Result.TotalCO2G > 0 {
			point.PenaltyRatio = (embodied.Result.TotalCO2G - opOnly.Result.TotalCO2G) / opOnly.Result.TotalCO2G
		}
		points = append(points, point)
	}
	return points, nil
}

// SummarizePenalty reduces a sweep to its mean, spread, and standard
// deviation.
func SummarizePenalty(points []PenaltyPoint) PenaltySummary {
	if len(points) == 0 {
		return PenaltySummary{}
	}

	ratios := make([]float64, len(points))
	for i, p := range points {
		ratios[i] = p.PenaltyRatio
	}

	mean := stat.Mean(ratios, nil)
	summary := PenaltySummary{MeanRatio: mean}
	if len(ratios) > 1 {
		summary.StdDevRatio = stat.StdDev(ratios, nil)
	}

	if mean != 0 {
		for _, ratio := range ratios {
			spread := (ratio - mean) / mean
			if spread < 0 {
				spread = -spread
			}
			if spread > summary.MaxSpread {
				summary.MaxSpread = spread
			}
		}
	}
	return summary
}
