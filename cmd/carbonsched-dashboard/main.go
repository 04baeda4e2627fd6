// Command carbonsched-dashboard serves experiment results and on-demand
// carbon evaluations over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridwise/carbonsched/internal/carbon"
	"github.com/gridwise/carbonsched/internal/dashboard"
	"github.com/gridwise/carbonsched/internal/gridci"
	"github.com/gridwise/carbonsched/internal/strategy"
)

func main() {
	config := parseConfig()

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", config.LogLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	store := dashboard.NewResultStore(config.Results)
	if err := store.Load(); err != nil {
		log.Warn().Err(err).Str("path", config.Results).Msg("No results loaded, read endpoints will be empty")
	} else {
		log.Info().Int("records", store.Len()).Str("path", config.Results).Msg("Results loaded")
	}

	model, err := carbon.NewModel(carbon.DefaultModelConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build cost model")
	}

	source := intensitySource()

	selector, err := strategy.NewSelector(model, source, config.PUE, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build selector")
	}

	api, err := dashboard.NewServer(store, model, selector, strategy.DefaultFleet(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build API server")
	}

	server := &http.Server{
		Addr:              config.ListenAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
		<-signalChan

		ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
		close(shutdownDone)
	}()

	log.Info().Str("addr", config.ListenAddr).Msg("Starting dashboard server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}
	<-shutdownDone
}

// intensitySource picks the live hybrid client when an API token is
// configured, otherwise the static regional table.
func intensitySource() gridci.Source {
	token := os.Getenv("CARBONSCHED_CI_TOKEN")
	if token == "" {
		log.Info().Msg("No carbon intensity API token, using static regional factors")
		return gridci.StaticSource{}
	}

	baseURL := os.Getenv("CARBONSCHED_CI_URL")
	if baseURL == "" {
		baseURL = "https://api.electricitymap.org"
	}
	log.Info().Str("url", baseURL).Msg("Using hybrid live carbon intensity")
	return gridci.NewLiveClient(baseURL, token, gridci.NewHistory(log.Logger), log.Logger)
}
