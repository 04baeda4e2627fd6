package experiment

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// csvHeader is the stable column order of the results table. The dashboard
// and the analysis notebooks key on these names.
var csvHeader = []string{
	"id", "timestamp", "strategy", "region", "server_age", "server_age_years",
	"duration_s", "sla_ms", "operational_co2_g", "embodied_co2_g", "total_co2_g",
	"embodied_percent", "carbon_debt_ratio", "power_w", "latency_ms", "carbon_intensity",
}

// WriteCSV writes records to path, creating parent directories as needed.
// The file is replaced wholesale; incremental append across batches is the
// caller's concern.
func WriteCSV(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating results directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Timestamp,
			rec.Strategy,
			rec.Region,
			rec.ServerAge,
			formatFloat(rec.ServerAgeYears),
			formatFloat(rec.DurationSeconds),
			formatFloat(rec.SLAMs),
			formatFloat(rec.OperationalCO2G),
			formatFloat(rec.EmbodiedCO2G),
			formatFloat(rec.TotalCO2G),
			formatFloat(rec.EmbodiedPercent),
			formatFloat(rec.CarbonDebtRatio),
			formatFloat(rec.PowerWatts),
			formatFloat(rec.LatencyMs),
			formatFloat(rec.CarbonIntensityGPerKWh),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing results CSV: %w", err)
	}
	return f.Sync()
}

// ReadCSV loads a results table written by WriteCSV.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening results file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading results CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("results file %s is empty", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range csvHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("results file %s is missing column %q", path, name)
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := Record{
			ID:        row[col["id"]],
			Timestamp: row[col["timestamp"]],
			Strategy:  row[col["strategy"]],
			Region:    row[col["region"]],
			ServerAge: row[col["server_age"]],
		}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"server_age_years", &rec.ServerAgeYears},
			{"duration_s", &rec.DurationSeconds},
			{"sla_ms", &rec.SLAMs},
			{"operational_co2_g", &rec.OperationalCO2G},
			{"embodied_co2_g", &rec.EmbodiedCO2G},
			{"total_co2_g", &rec.TotalCO2G},
			{"embodied_percent", &rec.EmbodiedPercent},
			{"carbon_debt_ratio", &rec.CarbonDebtRatio},
			{"power_w", &rec.PowerWatts},
			{"latency_ms", &rec.LatencyMs},
			{"carbon_intensity", &rec.CarbonIntensityGPerKWh},
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(row[col[field.name]], 64)
			if err != nil {
				return nil, fmt.Errorf("results file %s row %d: bad %s: %w", path, i+2, field.name, err)
			}
			*field.dst = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
