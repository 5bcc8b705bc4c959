package sensorpoll

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	title            string
	sensors          []Sensor
	defaultInterval  time.Duration
	port             int
	sysfsRoot        string
	stopTimeout      time.Duration
	logger           *slog.Logger
	clock            clock.Clock
	readingCallbacks []ReadingCallback
}

// Option is a function that configures a [Monitor] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*monitorConfig) error

// WithSensor adds a single [Sensor] to the polling list.
//
// Can be called multiple times to add multiple sensors. At least one
// sensor must be configured for [New] to succeed.
func WithSensor(s Sensor) Option {
	return func(cfg *monitorConfig) error {
		cfg.sensors = append(cfg.sensors, s)
		return nil
	}
}

// WithSensors adds multiple [Sensor] values to the polling list.
//
// Example:
//
//	sensors, _ := sensorpoll.NewSensorGrid("Chamber", sensorpoll.TypeIIO, ...)
//	m, err := sensorpoll.New(sensorpoll.WithSensors(sensors...))
func WithSensors(sensors ...Sensor) Option {
	return func(cfg *monitorConfig) error {
		cfg.sensors = append(cfg.sensors, sensors...)
		return nil
	}
}

// WithDefaultInterval sets the polling interval of sensors that do not set
// their own via [WithInterval]. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithDefaultInterval(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("default interval must be positive")
		}
		cfg.defaultInterval = d
		return nil
	}
}

// WithPort sets the HTTP port of the status API.
//
// The API is available at http://localhost:<port>/api/readings. A port of 0
// disables the server. Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (0-65535).
func WithPort(port int) Option {
	return func(cfg *monitorConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port must be between 0 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithSysfsRoot sets the directory sensor paths are built under.
// Defaults to /sys. Containers that bind-mount the host's sysfs elsewhere
// and tests with a fake tree use this.
//
// Returns an error if root is empty.
func WithSysfsRoot(root string) Option {
	return func(cfg *monitorConfig) error {
		if root == "" {
			return errors.New("sysfs root cannot be empty")
		}
		cfg.sysfsRoot = root
		return nil
	}
}

// WithStopTimeout bounds how long [Monitor.Start] waits for in-flight cycles
// after its context is cancelled. Defaults to 30 seconds.
//
// Returns an error if the duration is zero or negative.
func WithStopTimeout(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("stop timeout must be positive")
		}
		cfg.stopTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Monitor instance.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock replaces the clock that drives polling and timestamps readings.
// Tests pass a mock clock to step through intervals.
//
// Returns an error if the clock is nil.
func WithClock(c clock.Clock) Option {
	return func(cfg *monitorConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithReadingCallback registers a function called with every new [Reading].
//
// Multiple callbacks may be registered; they execute in registration order,
// after the reading is stored.
//
// IMPORTANT: Callbacks run on the sensor's polling goroutine. A slow callback
// delays that sensor's next cycle, so long-running work should be dispatched
// to a separate goroutine. Panics within callbacks are recovered and logged.
//
// Example:
//
//	m, err := sensorpoll.New(
//	    sensorpoll.WithSensor(probe),
//	    sensorpoll.WithReadingCallback(func(r sensorpoll.Reading) {
//	        if r.Value > 30 {
//	            log.Printf("ALERT: %s is at %.1f", r.SensorName, r.Value)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithReadingCallback(cb ReadingCallback) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.readingCallbacks = append(cfg.readingCallbacks, cb)
		return nil
	}
}

// WithTitle sets the title reported by the status API.
func WithTitle(title string) Option {
	return func(cfg *monitorConfig) error {
		cfg.title = title
		return nil
	}
}
