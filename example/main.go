package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sensorpoll"
)

func main() {
	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// simulated /sys (see fake_sysfs.go)
	root, err := os.MkdirTemp("", "sensorpoll-sys-")
	if err != nil {
		slog.Error("failed to create fake sysfs", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(root)

	if err := StartFakeSysfs(ctx, root); err != nil {
		slog.Error("failed to start fake sysfs", "error", err)
		os.Exit(1)
	}

	// grid API: 2 devices × 2 channels = 4 sensors from one declaration
	sensors, err := sensorpoll.NewSensorGrid("Chamber", sensorpoll.TypeIIO,
		sensorpoll.WithDimensions(map[string][]string{
			"device":  {"iio:device0", "iio:device1"},
			"channel": {"in_temp_input", "in_humidityrelative_input"},
		}),
		sensorpoll.WithGridLabels("site", "demo"),
	)
	if err != nil {
		slog.Error("failed to create sensor grid", "error", err)
		os.Exit(1)
	}

	// 1-Wire probes with their own polling interval (overrides global 2s)
	tank, _ := sensorpoll.NewSensor("Tank", sensorpoll.TypeW1Therm,
		sensorpoll.WithSerial("28-0000075a1b2c"),
		sensorpoll.WithInterval(5*time.Second),
	)
	flaky, _ := sensorpoll.NewSensor("Flaky probe", sensorpoll.TypeW1Therm,
		sensorpoll.WithSerial("28-00000bad0c3c"),
		sensorpoll.WithRetries(1),
	)
	sensors = append(sensors, tank, flaky)

	m, err := sensorpoll.New(
		sensorpoll.WithSensors(sensors...),
		sensorpoll.WithSysfsRoot(root),
		sensorpoll.WithDefaultInterval(2*time.Second),
		sensorpoll.WithPort(8080),
		sensorpoll.WithTitle("sensorpoll demo"),
		sensorpoll.WithReadingCallback(func(r sensorpoll.Reading) {
			if r.SensorName == "Tank" {
				slog.Info("tank reading", "value", r.Value)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  sensorpoll demo")
	fmt.Println()
	fmt.Println("  Readings: http://localhost:8080/api/readings")
	fmt.Println("  Live:     http://localhost:8080/api/sse")
	fmt.Println("  Metrics:  http://localhost:8080/metrics")
	fmt.Println()
	fmt.Println("  Sensors:")
	fmt.Println("  - 4 IIO channels (2 devices x 2 channels via Grid)")
	fmt.Println("  - 2 1-Wire probes (one reports bad CRCs now and then)")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	if err := m.Start(ctx); err != nil {
		slog.Error("sensorpoll error", "error", err)
		os.Exit(1)
	}
}
