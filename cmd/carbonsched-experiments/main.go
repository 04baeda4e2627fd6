// Command carbonsched-experiments runs a batch of scheduling evaluations
// across strategies and task durations and writes the results CSV consumed
// by the dashboard and the analysis notebooks.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridwise/carbonsched/internal/experiment"
)

func main() {
	config := parseConfig()

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", config.LogLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	scenario := experiment.DefaultScenario()
	if config.Scenario != "" {
		scenario, err = experiment.LoadScenario(config.Scenario)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load scenario")
		}
	}
	if config.Output != "" {
		scenario.Output = config.Output
	}

	runner, err := experiment.NewRunner(scenario, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build runner")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn().Msg("Received shutdown signal, cancelling batch")
		cancel()
	}()

	start := time.Now()
	records, err := runner.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Batch failed")
	}
	log.Info().
		Int("records", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch complete")

	if err := experiment.WriteCSV(scenario.Output, records); err != nil {
		log.Fatal().Err(err).Str("path", scenario.Output).Msg("Failed to write results")
	}
	log.Info().Str("path", scenario.Output).Msg("Results written")

	if config.Sensitivity {
		points, err := runner.DurationSensitivity(ctx, scenario.DurationsSeconds)
		if err != nil {
			log.Fatal().Err(err).Msg("Sensitivity sweep failed")
		}
		summary := experiment.SummarizePenalty(points)
		log.Info().
			Float64("mean_ratio", summary.MeanRatio).
			Float64("stddev_ratio", summary.StdDevRatio).
			Float64("max_spread", summary.MaxSpread).
			Msg("Embodied-prioritized penalty across durations")
	}
}
