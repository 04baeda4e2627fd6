package main

import (
	"flag"
)

// Config holds settings for the experiment driver. Scenario points at a YAML
// scenario file (empty means the built-in research defaults), Output
// overrides the scenario's results path, and Sensitivity toggles the
// duration-sensitivity sweep after the main batch.
type Config struct {
	Scenario    string
	Output      string
	Sensitivity bool
	LogLevel    string
}

func parseConfig() *Config {
	config := &Config{}

	flag.StringVar(&config.Scenario, "scenario", "", "Path to a YAML scenario file (empty for defaults)")
	flag.StringVar(&config.Output, "output", "", "Override the scenario's results CSV path")
	flag.BoolVar(&config.Sensitivity, "sensitivity", true, "Run the duration-sensitivity sweep after the batch")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	flag.Parse()

	return config
}
