// Package experiment drives batches of synthetic scheduling evaluations
// across strategies, durations, and regions, and materializes the results as
// tabular records for the analysis and dashboard layers.
package experiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gridwise/carbonsched/internal/carbon"
	"github.com/gridwise/carbonsched/internal/strategy"
)

// Scenario configures one experiment batch. It is typically loaded from a
// YAML file; zero fields fall back to the research defaults.
type Scenario struct {
	// Model overrides the cost-model parameters.
	Model carbon.ModelConfig `yaml:"model"`

	// PUE is the datacenter overhead multiplier applied to every
	// evaluation in the batch.
	PUE float64 `yaml:"pue"`

	// SLAMs is the latency bound attached to every synthetic task.
	SLAMs float64 `yaml:"sla_ms"`

	// Strategies lists the policies to compare, by wire name.
	Strategies []string `yaml:"strategies"`

	// DurationsSeconds lists the synthetic task durations to sweep.
	DurationsSeconds []float64 `yaml:"durations_seconds"`

	// Repeats is how many times each (strategy, duration) cell runs.
	Repeats int `yaml:"repeats"`

	// Workers bounds the number of concurrent evaluations.
	Workers int `yaml:"workers"`

	// Output is the CSV path the driver writes results to.
	Output string `yaml:"output"`

	// Fleet is the candidate region set; empty means the default
	// four-region research fleet.
	Fleet strategy.Fleet `yaml:"fleet"`
}

// DefaultScenario returns the batch configuration used by the headline
// strategy-comparison experiments.
func DefaultScenario() Scenario {
	return Scenario{
		Model:            carbon.DefaultModelConfig(),
		PUE:              carbon.DefaultPUE,
		SLAMs:            2000,
		Strategies:       []string{"embodied_prioritized", "balanced", "operational_only"},
		DurationsSeconds: []float64{5, 15, 30, 60, 300, 600, 1800, 3600},
		Repeats:          3,
		Workers:          4,
		Output:           "experiment_results/results.csv",
		Fleet:            strategy.DefaultFleet(),
	}
}

// LoadScenario reads a YAML scenario file, filling unset fields from the
// defaults.
func LoadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	scenario := DefaultScenario()
	if err := yaml.Unmarshal(raw, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	if err := scenario.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return scenario, nil
}

// Validate checks the scenario is runnable. Strategy names are resolved
// eagerly so a typo fails before any work is scheduled.
func (s Scenario) Validate() error {
	if s.PUE < 1.0 {
		return fmt.Errorf("%w: PUE must be >= 1.0, got %g", carbon.ErrInvalidParameter, s.PUE)
	}
	if s.SLAMs <= 0 {
		return fmt.Errorf("%w: SLA must be positive, got %gms", carbon.ErrInvalidParameter, s.SLAMs)
	}
	if len(s.Strategies) == 0 {
		return fmt.Errorf("%w: no strategies configured", carbon.ErrInvalidParameter)
	}
	for _, name := range s.Strategies {
		if _, err := strategy.Parse(name); err != nil {
			return err
		}
	}
	if len(s.DurationsSeconds) == 0 {
		return fmt.Errorf("%w: no durations configured", carbon.ErrInvalidParameter)
	}
	for _, d := range s.DurationsSeconds {
		if d <= 0 {
			return fmt.Errorf("%w: duration must be positive, got %gs", carbon.ErrInvalidParameter, d)
		}
	}
	if s.Repeats <= 0 {
		return fmt.Errorf("%w: repeats must be positive, got %d", carbon.ErrInvalidParameter, s.Repeats)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", carbon.ErrInvalidParameter, s.Workers)
	}
	return s.Fleet.Validate()
}

// strategies resolves the configured names to enum values. Validate must
// have passed.
func (s Scenario) strategies() ([]strategy.Strategy, error) {
	out := make([]strategy.Strategy, 0, len(s.Strategies))
	for _, name := range s.Strategies {
		strat, err := strategy.Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, strat)
	}
	return out, nil
}
