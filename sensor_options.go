package sensorpoll

import (
	"errors"
	"time"

	"github.com/jpalmerr/sensorpoll/internal/sensor"
)

// sensorConfig holds mutable state during sensor construction.
type sensorConfig struct {
	params  map[string]any
	labels  map[string]string
	convert ConvertFunc
}

// SensorOption is a function that configures a [Sensor] during construction.
//
// SensorOption implements the functional options pattern, allowing optional
// configuration to be passed to [NewSensor]. Options return an error if
// validation fails.
type SensorOption func(*sensorConfig) error

// WithParam sets a raw adapter parameter.
//
// Use it for parameters without a dedicated option. Values follow the
// adapter's rules: numeric intervals are milliseconds.
//
// Returns an error if the key is empty.
func WithParam(key string, value any) SensorOption {
	return func(cfg *sensorConfig) error {
		if key == "" {
			return errors.New("param key cannot be empty")
		}
		cfg.params[key] = value
		return nil
	}
}

// WithDevice sets the IIO device directory, e.g. "iio:device0".
func WithDevice(device string) SensorOption {
	return WithParam(sensor.ParamDevice, device)
}

// WithChannel sets the IIO channel file, e.g. "in_temp_input".
func WithChannel(channel string) SensorOption {
	return WithParam(sensor.ParamChannel, channel)
}

// WithSerial sets the 1-Wire serial of a w1therm probe, e.g. "28-0000075a1b2c".
func WithSerial(serial string) SensorOption {
	return WithParam(sensor.ParamSensorSerial, serial)
}

// WithInterval sets the polling interval of this sensor.
//
// If not specified, the sensor uses the default interval configured via
// [WithDefaultInterval].
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) SensorOption {
	return func(cfg *sensorConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.params[sensor.ParamInterval] = d
		return nil
	}
}

// WithRetries sets how many times a failed read is retried within one
// polling cycle. Defaults to 3.
//
// Returns an error if n is negative.
func WithRetries(n int) SensorOption {
	return func(cfg *sensorConfig) error {
		if n < 0 {
			return errors.New("retries cannot be negative")
		}
		cfg.params[sensor.ParamRetries] = n
		return nil
	}
}

// WithLabels adds metadata labels to the sensor for grouping and filtering.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	s, err := sensorpoll.NewSensor("Probe", sensorpoll.TypeW1Therm,
//	    sensorpoll.WithLabels("room", "north", "rack", "3"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithLabels(keyValues ...string) SensorOption {
	return func(cfg *sensorConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithLabels requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.labels[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithConvert sets how an IIO sensor turns file content into a value.
//
// Channels in_temp_input and in_humidityrelative_input default to
// [MilliConvert]; any other channel needs a conversion.
func WithConvert(fn ConvertFunc) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.convert = fn
		return nil
	}
}
