package sensorpoll

import (
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Reading is a value written to a sensor's output by a successful polling
// cycle.
//
// Failed cycles produce no Reading: the sensor keeps its previous value until
// a later cycle succeeds.
type Reading struct {
	// SensorName is the display name of the sensor.
	SensorName string

	// Type is the adapter that read the sensor.
	Type string

	// Path is the sysfs file the value was read from.
	Path string

	// Value is the parsed reading.
	Value float64

	// Labels contains the key-value metadata associated with the sensor.
	Labels map[string]string

	// UpdatedAt is the time the value was written.
	UpdatedAt time.Time
}

// ReadingCallback receives every [Reading] as it is written.
type ReadingCallback func(Reading)

// invokeCallbackSafe calls a reading callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb ReadingCallback, reading Reading, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("reading callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"sensor", reading.SensorName,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(reading)
}
