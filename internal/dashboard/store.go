// Package dashboard serves experiment results and on-demand scheduling
// evaluations over HTTP for the research dashboard.
package dashboard

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/gridwise/carbonsched/internal/experiment"
)

// ResultStore holds the experiment records served by the read API. Records
// are loaded from the results CSV and can be reloaded without restarting
// the server.
type ResultStore struct {
	path string

	mu      sync.RWMutex
	records []experiment.Record
}

// NewResultStore creates a store backed by the CSV at path. Call Load before
// serving.
func NewResultStore(path string) *ResultStore {
	return &ResultStore{path: path}
}

// Load reads the results file, replacing the in-memory records on success.
// On failure the previously loaded records are kept.
func (s *ResultStore) Load() error {
	records, err := experiment.ReadCSV(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// Len returns the number of loaded records.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Filter selects records matching the given strategy and region. Empty
// arguments match everything.
func (s *ResultStore) Filter(strategyName, region string) []experiment.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]experiment.Record, 0, len(s.records))
	for _, rec := range s.records {
		if strategyName != "" && rec.Strategy != strategyName {
			continue
		}
		if region != "" && rec.Region != region {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// StrategySummary aggregates the records of one strategy.
type StrategySummary struct {
	Strategy            string  `json:"strategy"`
	Count               int     `json:"count"`
	MeanTotalCO2G       float64 `json:"mean_total_co2_g"`
	MeanOperationalCO2G float64 `json:"mean_operational_co2_g"`
	MeanEmbodiedCO2G    float64 `json:"mean_embodied_co2_g"`
	MeanEmbodiedPercent float64 `json:"mean_embodied_percent"`
	MeanPowerWatts      float64 `json:"mean_power_w"`
}

// Summarize aggregates the loaded records per strategy, in first-seen
// order.
func (s *ResultStore) Summarize() []StrategySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStrategy := make(map[string][]experiment.Record)
	order := make([]string, 0, 4)
	for _, rec := range s.records {
		if _, seen := byStrategy[rec.Strategy]; !seen {
			order = append(order, rec.Strategy)
		}
		byStrategy[rec.Strategy] = append(byStrategy[rec.Strategy], rec)
	}

	summaries := make([]StrategySummary, 0, len(order))
	for _, name := range order {
		recs := byStrategy[name]
		total := make([]float64, len(recs))
		operational := make([]float64, len(recs))
		embodied := make([]float64, len(recs))
		percent := make([]float64, len(recs))
		power := make([]float64, len(recs))
		for i, rec := range recs {
			total[i] = rec.TotalCO2G
			operational[i] = rec.OperationalCO2G
			embodied[i] = rec.EmbodiedCO2G
			percent[i] = rec.EmbodiedPercent
			power[i] = rec.PowerWatts
		}
		summaries = append(summaries, StrategySummary{
			Strategy:            name,
			Count:               len(recs),
			MeanTotalCO2G:       stat.Mean(total, nil),
			MeanOperationalCO2G: stat.Mean(operational, nil),
			MeanEmbodiedCO2G:    stat.Mean(embodied, nil),
			MeanEmbodiedPercent: stat.Mean(percent, nil),
			MeanPowerWatts:      stat.Mean(power, nil),
		})
	}
	return summaries
}
