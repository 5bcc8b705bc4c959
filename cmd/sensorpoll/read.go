package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/sensorpoll"
	"github.com/jpalmerr/sensorpoll/config"
)

// maxParallelReads bounds the sensors read at once by the read command.
const maxParallelReads = 4

// readCmd reads sensors once and prints their values.
var readCmd = &cobra.Command{
	Use:   "read [sensor name...]",
	Short: "Read sensors once",
	Long: `Read configured sensors once and print their values.

Each sensor is read through the same parsing and retries as serve. With no
names, every sensor in the config is read. A failed sensor is reported and
makes the command exit with code 1 after the others have been read.

Example:
  sensorpoll read -c config.yaml
  sensorpoll read -c config.yaml "Air temperature" "Tank"`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	readCmd.Flags().Duration("timeout", 30*time.Second, "maximum time for all reads")
	_ = readCmd.MarkFlagRequired("config")
}

type readResult struct {
	name  string
	value float64
	err   error
}

func runRead(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var sensors []sensorpoll.Sensor
	if len(args) == 0 {
		sensors, err = config.BuildSensors(cfg)
		if err != nil {
			return fmt.Errorf("failed to build sensors: %w", err)
		}
	} else {
		for _, name := range args {
			s, err := config.FindSensor(cfg, name)
			if err != nil {
				return err
			}
			sensors = append(sensors, s)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	// failures are reported per sensor, not through the group
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	results := make([]readResult, len(sensors))

	var g errgroup.Group
	g.SetLimit(maxParallelReads)
	for i, s := range sensors {
		g.Go(func() error {
			v, err := sensorpoll.ReadOnce(ctx, s, cfg.SysfsRoot, logger)
			results[i] = readResult{name: s.Name(), value: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf("%s: error: %v\n", r.name, r.err)
			continue
		}
		fmt.Printf("%s: %g\n", r.name, r.value)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sensors failed", failed, len(results))
	}
	return nil
}
