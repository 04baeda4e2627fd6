package experiment

import (
	"context"
	"fmt"

	"github.com/gridwise/carbonsched/internal/carbon"
)

// MatrixCell is one (region, age-class) entry of a regional performance
// matrix at a fixed task duration.
type MatrixCell struct {
	Region                 string  `json:"region"`
	AgeClass               string  `json:"server_age"`
	AgeYears               float64 `json:"server_age_years"`
	CarbonIntensityGPerKWh float64 `json:"carbon_intensity"`
	OperationalCO2G        float64 `json:"operational_co2_g"`
	EmbodiedCO2G           float64 `json:"embodied_co2_g"`
	TotalCO2G              float64 `json:"total_co2_g"`
}

// RegionalMatrix evaluates every (region, age-class) pair in the scenario's
// fleet at the given duration, bypassing strategy selection so the full grid
// is visible.
func (r *Runner) RegionalMatrix(ctx context.Context, durationSeconds float64) ([]MatrixCell, error) {
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %gs", carbon.ErrInvalidParameter, durationSeconds)
	}

	task := carbon.Task{DurationSeconds: durationSeconds, SLAMs: r.scenario.SLAMs}

	model, err := carbon.NewModel(r.scenario.Model)
	if err != nil {
		return nil, err
	}

	var cells []MatrixCell
	for _, region := range r.scenario.Fleet.Regions {
		ci := r.intensity(ctx, region.Name)
		grid := carbon.GridContext{CarbonIntensityGPerKWh: ci, PUE: r.scenario.PUE}

		for _, ac := range region.AgeClasses {
			result, err := model.Evaluate(model.Config().Profile(ac.AgeYears), grid, task)
			if err != nil {
				return nil, err
			}
			cells = append(cells, MatrixCell{
				Region:                 region.Name,
				AgeClass:               ac.Name,
				AgeYears:               ac.AgeYears,
				CarbonIntensityGPerKWh: ci,
				OperationalCO2G:        result.OperationalCO2G,
				EmbodiedCO2G:           result.EmbodiedCO2G,
				TotalCO2G:              result.TotalCO2G,
			})
		}
	}
	return cells, nil
}
