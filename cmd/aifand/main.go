// Package main implements the entry point for the aifand daemon: an
// adaptive thermal management loop that reads sensors, decides actuator
// settings, and writes them back out, driven by a single configured runner.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"log/slog"

	"github.com/johnwbyrd/aifand/config"
	"github.com/johnwbyrd/aifand/metric"
	"github.com/johnwbyrd/aifand/runner"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "aifand"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)
	slog.Info("Starting aifand (adaptive thermal management)",
		"version", Version,
		"config_path", cliCfg.ConfigPath)

	data, err := os.ReadFile(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	doc, err := config.Parse(data)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		if _, err := buildTree(doc, logger, nil); err != nil {
			return err
		}
		slog.Info("Configuration is valid")
		return nil
	}

	metricsRegistry := metric.NewRegistry()
	r, err := buildTree(doc, logger, metricsRegistry)
	if err != nil {
		return err
	}

	if doc.Runner.MetricsAddr != "" {
		serveMetrics(doc.Runner.MetricsAddr, metricsRegistry, logger)
	}

	return runWithSignalHandling(r, logger)
}

func buildTree(doc *config.Document, logger *slog.Logger, metrics *metric.Registry) (runner.Runner, error) {
	registry := config.NewRegistry()
	if err := config.RegisterBuiltins(registry); err != nil {
		return nil, err
	}
	r, _, err := doc.Build(registry, config.Dependencies{Logger: logger, Metrics: metrics})
	return r, err
}

func serveMetrics(addr string, registry *metric.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
}

func runWithSignalHandling(r runner.Runner, logger *slog.Logger) error {
	// A fast runner has no background mode: run it to completion and
	// exit. This is the simulation/replay path.
	if fast, ok := r.(*runner.Fast); ok {
		logger.Info("Running simulation", "runner", fast.Name())
		return fast.RunFor(int64(time.Hour))
	}

	if err := r.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", "signal", sig.String())

	return r.Stop()
}
