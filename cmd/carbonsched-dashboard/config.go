package main

import (
	"flag"
	"time"
)

// Config holds settings for the dashboard server. Results points at the
// experiment CSV to serve, ListenAddr is the HTTP bind address, and
// ShutdownTimeout bounds the graceful drain on shutdown signals.
type Config struct {
	Results         string
	ListenAddr      string
	PUE             float64
	LogLevel        string
	ShutdownTimeout time.Duration
}

func parseConfig() *Config {
	config := &Config{}

	flag.StringVar(&config.Results, "results", "experiment_results/results.csv", "Path to the experiment results CSV")
	flag.StringVar(&config.ListenAddr, "listen", ":8080", "Address to listen on")
	flag.Float64Var(&config.PUE, "pue", 1.2, "Datacenter PUE applied to schedule requests")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.DurationVar(&config.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	flag.Parse()

	return config
}
