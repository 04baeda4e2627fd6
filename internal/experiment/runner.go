package experiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gridwise/carbonsched/internal/carbon"
	"github.com/gridwise/carbonsched/internal/gridci"
	"github.com/gridwise/carbonsched/internal/strategy"
)

// Record is one completed evaluation, shaped to match the result tables the
// analysis notebooks and the dashboard consume.
type Record struct {
	ID                     string  `json:"id"`
	Timestamp              string  `json:"timestamp"`
	Strategy               string  `json:"strategy"`
	Region                 string  `json:"region"`
	ServerAge              string  `json:"server_age"`
	ServerAgeYears         float64 `json:"server_age_years"`
	DurationSeconds        float64 `json:"duration_s"`
	SLAMs                  float64 `json:"sla_ms"`
	OperationalCO2G        float64 `json:"operational_co2_g"`
	EmbodiedCO2G           float64 `json:"embodied_co2_g"`
	TotalCO2G              float64 `json:"total_co2_g"`
	EmbodiedPercent        float64 `json:"embodied_percent"`
	CarbonDebtRatio        float64 `json:"carbon_debt_ratio"`
	PowerWatts             float64 `json:"power_w"`
	LatencyMs              float64 `json:"latency_ms"`
	CarbonIntensityGPerKWh float64 `json:"carbon_intensity"`
}

// Runner executes a Scenario. Evaluations are pure and independent, so runs
// are embarrassingly parallel across the worker pool; ordering of the output
// slice is fixed by the job grid, not by completion order.
type Runner struct {
	scenario Scenario
	selector *strategy.Selector
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRunner validates the scenario and builds a Runner. Experiments always
// use the static carbon-intensity table so batches are reproducible.
func NewRunner(scenario Scenario, logger zerolog.Logger) (*Runner, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	model, err := carbon.NewModel(scenario.Model)
	if err != nil {
		return nil, err
	}
	selector, err := strategy.NewSelector(model, gridci.StaticSource{}, scenario.PUE, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		scenario: scenario,
		selector: selector,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Selector exposes the runner's selector for the analysis sweeps.
func (r *Runner) Selector() *strategy.Selector {
	return r.selector
}

// intensity resolves the static carbon intensity for a region.
func (r *Runner) intensity(ctx context.Context, region string) float64 {
	return gridci.StaticSource{}.IntensityGPerKWh(ctx, region)
}

type job struct {
	index    int
	strategy strategy.Strategy
	duration float64
	repeat   int
}

// Run executes the full strategy x duration x repeat grid and returns one
// record per cell.
func (r *Runner) Run(ctx context.Context) ([]Record, error) {
	strategies, err := r.scenario.strategies()
	if err != nil {
		return nil, err
	}

	var jobs []job
	for _, strat := range strategies {
		for _, dur := range r.scenario.DurationsSeconds {
			for rep := 0; rep < r.scenario.Repeats; rep++ {
				jobs = append(jobs, job{index: len(jobs), strategy: strat, duration: dur, repeat: rep})
			}
		}
	}

	r.logger.Info().
		Int("jobs", len(jobs)).
		Int("workers", r.scenario.Workers).
		Msg("starting experiment batch")

	records := make([]Record, len(jobs))
	errs := make([]error, len(jobs))
	jobCh := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < r.scenario.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				records[j.index], errs[j.index] = r.runOne(ctx, j)
			}
		}()
	}

	for _, j := range jobs {
		select {
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			return nil, ctx.Err()
		case jobCh <- j:
		}
	}
	close(jobCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	r.logger.Info().Int("records", len(records)).Msg("experiment batch complete")
	return records, nil
}

func (r *Runner) runOne(ctx context.Context, j job) (Record, error) {
	task := carbon.Task{DurationSeconds: j.duration, SLAMs: r.scenario.SLAMs}

	decision, err := r.selector.Select(ctx, task, j.strategy, r.scenario.Fleet)
	if err != nil {
		return Record{}, fmt.Errorf("strategy %s, duration %gs, repeat %d: %w",
			j.strategy, j.duration, j.repeat, err)
	}

	return Record{
		ID:                     uuid.New().String(),
		Timestamp:              r.now().UTC().Format(time.RFC3339),
		Strategy:               decision.Strategy,
		Region:                 decision.Region,
		ServerAge:              decision.AgeClass,
		ServerAgeYears:         decision.AgeYears,
		DurationSeconds:        j.duration,
		SLAMs:                  r.scenario.SLAMs,
		OperationalCO2G:        decision.Result.OperationalCO2G,
		EmbodiedCO2G:           decision.Result.EmbodiedCO2G,
		TotalCO2G:              decision.Result.TotalCO2G,
		EmbodiedPercent:        decision.Result.EmbodiedPercent,
		CarbonDebtRatio:        decision.Result.DebtRatio,
		PowerWatts:             decision.Result.PowerWatts,
		LatencyMs:              decision.LatencyMs,
		CarbonIntensityGPerKWh: decision.CarbonIntensityGPerKWh,
	}, nil
}
