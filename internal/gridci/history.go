package gridci

import (
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

//go:embed data/ci_history.json
var rawHistoryJSON []byte

// sample is one recorded carbon-intensity observation.
type sample struct {
	Timestamp       time.Time `json:"timestamp"`
	CarbonIntensity float64   `json:"carbon_intensity"`
}

// History provides the last recorded historical carbon-intensity value per
// region from the embedded dataset. The dataset is parsed once on first
// access; History is safe for concurrent use.
type History struct {
	logger zerolog.Logger

	once  sync.Once
	err   error
	index map[string][]sample
}

// NewHistory creates a History backed by the embedded dataset. The logger is
// used for parse diagnostics only.
func NewHistory(logger zerolog.Logger) *History {
	return &History{logger: logger}
}

func (h *History) load() {
	h.once.Do(func() {
		index := make(map[string][]sample)
		if err := json.Unmarshal(rawHistoryJSON, &index); err != nil {
			h.err = fmt.Errorf("parsing embedded carbon-intensity history: %w", err)
			h.logger.Error().Err(h.err).Msg("historical CI data unavailable")
			return
		}
		h.index = index
		h.logger.Debug().Int("regions", len(index)).Msg("loaded embedded carbon-intensity history")
	})
}

// Latest returns the most recent recorded intensity for the region in
// gCO2e/kWh. The second return is false when the region has no history or
// the embedded dataset failed to parse.
func (h *History) Latest(region string) (float64, bool) {
	h.load()
	if h.err != nil {
		return 0, false
	}
	samples := h.index[region]
	if len(samples) == 0 {
		return 0, false
	}
	return samples[len(samples)-1].CarbonIntensity, true
}
