package experiment

import (
	"fmt"

	"github.com/gridwise/carbonsched/internal/carbon"
)

// BoundaryPoint records which age class wins at one (carbon intensity,
// degradation rate) combination. The sweep probes the scope of the
// no-crossover result: clean grids and slow-aging hardware are where
// embodied-aware placement can come out ahead.
type BoundaryPoint struct {
	CarbonIntensityGPerKWh float64 `json:"carbon_intensity"`
	DegradationRatePerYear float64 `json:"degradation_rate_per_year"`
	NewServerTotalG        float64 `json:"new_server_total_g"`
	OldServerTotalG        float64 `json:"old_server_total_g"`

	// OldServerWins is true when the aged server's paid-off embodied debt
	// outweighs its degraded power draw.
	OldServerWins bool `json:"old_server_wins"`
}

// BoundarySweep compares a new (0.5y) and an old (4.0y) server at the given
// task duration across a grid of carbon intensities and degradation rates.
// Each rate gets its own model; everything else comes from the scenario.
func (r *Runner) BoundarySweep(intensities, degradationRates []float64, durationSeconds float64) ([]BoundaryPoint, error) {
	if len(intensities) == 0 || len(degradationRates) == 0 {
		return nil, fmt.Errorf("%w: boundary sweep needs intensities and degradation rates", carbon.ErrInvalidParameter)
	}
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %gs", carbon.ErrInvalidParameter, durationSeconds)
	}

	task := carbon.Task{DurationSeconds: durationSeconds, SLAMs: r.scenario.SLAMs}

	var points []BoundaryPoint
	for _, rate := range degradationRates {
		cfg := r.scenario.Model
		cfg.DegradationRatePerYear = rate
		model, err := carbon.NewModel(cfg)
		if err != nil {
			return nil, err
		}

		for _, ci := range intensities {
			grid := carbon.GridContext{CarbonIntensityGPerKWh: ci, PUE: r.scenario.PUE}

			newResult, err := model.Evaluate(model.Config().Profile(0.5), grid, task)
			if err != nil {
				return nil, err
			}
			oldResult, err := model.Evaluate(model.Config().Profile(4.0), grid, task)
			if err != nil {
				return nil, err
			}

			points = append(points, BoundaryPoint{
				CarbonIntensityGPerKWh: ci,
				DegradationRatePerYear: rate,
				NewServerTotalG:        newResult.TotalCO2G,
				OldServerTotalG:        oldResult.TotalCO2G,
				OldServerWins:          oldResult.TotalCO2G < newResult.TotalCO2G,
			})
		}
	}
	return points, nil
}
