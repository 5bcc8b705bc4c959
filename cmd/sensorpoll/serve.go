package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorpoll"
	"github.com/jpalmerr/sensorpoll/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// serveCmd starts polling and the status API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll sensors and serve the status API",
	Long: `Poll sensors and serve their readings.

The server will:
  - Load configuration from the specified YAML file
  - Start one poller per configured sensor
  - Serve readings, live updates and metrics on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM. Pollers
finish the cycle in progress before exiting.

Example:
  sensorpoll serve -c config.yaml
  sensorpoll serve --config /etc/sensorpoll/config.yaml --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().Duration("shutdown-timeout", shutdownTimeout, "how long to wait for pollers to drain on exit")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(level)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"sensors", len(cfg.Sensors),
		"grids", len(cfg.Grids),
	)
	logger.Info("starting server",
		"port", cfg.ListenPort(),
		"sysfs_root", cfg.SysfsRoot,
		"default_interval", cfg.DefaultInterval.Duration().String(),
	)

	// convert config to SDK options
	opts, err := config.MonitorOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build sensors: %w", err)
	}
	opts = append(opts,
		sensorpoll.WithLogger(logger),
		sensorpoll.WithStopTimeout(timeout),
	)

	m, err := sensorpoll.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start monitor - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Start(ctx)
	}()

	// wait for monitor to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with a margin over
		// the monitor's own drain timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(timeout + time.Second):
			logger.Warn("shutdown timed out",
				"timeout", timeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
