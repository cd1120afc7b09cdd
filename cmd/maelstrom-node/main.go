// Command maelstrom-node is a Maelstrom test node answering the echo and
// unique-id workloads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	maelstrom "github.com/amberhq/maelstrom-node"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("maelstrom-node failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("maelstrom-node", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "Path to config.yaml (optional)")
	workers := fs.Int("workers", 0, "Number of handler goroutines (overrides config)")
	logLevel := fs.String("log-level", "", "Log level: debug | info | warn | error (overrides config)")
	logFormat := fs.String("log-format", "", "Log format: text | json (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(os.Stderr, "maelstrom-node version=%s\n", version)
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// STDOUT carries protocol messages; diagnostics go to STDERR.
	logger := maelstrom.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	n := maelstrom.NewNode(
		maelstrom.WithWorkers(cfg.Workers),
		maelstrom.WithLogger(logger),
		maelstrom.WithRegisterer(reg),
	)
	registerHandlers(n)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// Restore default handling so a second signal terminates the process
		// while accepted messages drain.
		stop()
		n.Stop()
	}()

	logger.Info("maelstrom-node starting", "version", version, "workers", cfg.Workers)
	runErr := n.Run()

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			logger.Error("write metrics", "path", cfg.MetricsFile, "err", err)
		}
	}
	return runErr
}

func loadConfig(path string) (maelstrom.Config, error) {
	if path == "" {
		return maelstrom.DefaultConfig(), nil
	}
	return maelstrom.LoadConfig(path)
}
