package sensorpoll

import (
	"errors"
	"fmt"
	"time"

	"github.com/jpalmerr/sensorpoll/internal/sensor"
)

// gridConfig holds configuration during sensor grid construction.
type gridConfig struct {
	dimensions   map[string][]string
	staticLabels map[string]string
	params       map[string]any
	convert      ConvertFunc
}

// GridOption configures sensor grid generation.
// GridOption implements the functional options pattern for [NewSensorGrid].
type GridOption func(*gridConfig) error

// WithDimensions sets the dimension values for cartesian product expansion.
// Each key is an adapter parameter, and the cartesian product of all values
// generates the sensor combinations.
//
// Example:
//
//	WithDimensions(map[string][]string{
//	    "sensorSerial": {"28-0000075a1b2c", "28-0000075a9d3e"},
//	})
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// WithGridLabels adds static labels to all generated sensors.
// These labels are merged with auto-generated dimension labels.
// On collision, static labels take precedence over dimension labels.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
func WithGridLabels(keyValues ...string) GridOption {
	return func(cfg *gridConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithGridLabels requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.staticLabels[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithGridParam sets an adapter parameter shared by all generated sensors.
// Dimension values take precedence on collision.
func WithGridParam(key string, value any) GridOption {
	return func(cfg *gridConfig) error {
		if key == "" {
			return errors.New("param key cannot be empty")
		}
		cfg.params[key] = value
		return nil
	}
}

// WithGridInterval sets the polling interval for all generated sensors.
//
// Returns an error if the duration is zero or negative.
func WithGridInterval(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.params[sensor.ParamInterval] = d
		return nil
	}
}

// WithGridRetries sets the retry count for all generated sensors.
//
// Returns an error if n is negative.
func WithGridRetries(n int) GridOption {
	return func(cfg *gridConfig) error {
		if n < 0 {
			return errors.New("retries cannot be negative")
		}
		cfg.params[sensor.ParamRetries] = n
		return nil
	}
}

// WithGridConvert sets the conversion for all generated IIO sensors.
func WithGridConvert(fn ConvertFunc) GridOption {
	return func(cfg *gridConfig) error {
		cfg.convert = fn
		return nil
	}
}
