package sensorpoll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jpalmerr/sensorpoll/internal/poller"
	"github.com/jpalmerr/sensorpoll/internal/sensor"
)

// ReadOnce reads s a single time, with the same parsing and retries as a
// running [Monitor], and returns the value.
//
// Unlike a Monitor, which keeps the previous value when a cycle fails,
// ReadOnce returns the error of the last attempt. An empty sysfsRoot means
// /sys. A nil logger means [slog.Default].
func ReadOnce(ctx context.Context, s Sensor, sysfsRoot string, logger *slog.Logger) (float64, error) {
	if sysfsRoot == "" {
		sysfsRoot = sensor.DefaultRoot
	}

	adapter, err := sensor.Lookup(s.kind)
	if err != nil {
		return 0, fmt.Errorf("sensor %q: %w", s.name, err)
	}

	var slot sensor.Slot
	opts := s.adapterOptions(sysfsRoot, &slot, defaultInterval)
	if err := adapter.Check(opts); err != nil {
		return 0, fmt.Errorf("sensor %q: %w", s.name, err)
	}
	cfg, err := adapter.PollConfig(opts)
	if err != nil {
		return 0, fmt.Errorf("sensor %q: %w", s.name, err)
	}

	if err := poller.Once(ctx, cfg, poller.WithLogger(logger)); err != nil {
		return 0, fmt.Errorf("failed to read sensor %q from %s: %w", s.name, cfg.FilePath, err)
	}

	v, _ := slot.Value()
	return v, nil
}
