package sensorpoll

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/jpalmerr/sensorpoll/internal/sensor"
)

// Sensor types understood by [NewSensor].
const (
	// TypeIIO reads a channel of an industrial I/O device under
	// /sys/bus/iio/devices.
	TypeIIO = sensor.TypeIIO

	// TypeW1Therm reads a DS18B20-style 1-Wire probe under /sys/bus/w1/devices.
	TypeW1Therm = sensor.TypeW1Therm
)

// Sensor describes one sysfs file to poll.
//
// Sensor is immutable after creation via [NewSensor]. All fields are private
// with getter methods that return copies of mutable data (maps).
//
// Sensors are configured using the functional options pattern with
// [SensorOption] functions such as [WithDevice], [WithChannel], [WithSerial],
// [WithInterval], [WithRetries], [WithLabels] and [WithConvert].
type Sensor struct {
	name    string
	kind    string
	params  map[string]any
	labels  map[string]string
	convert ConvertFunc
}

// Name returns the sensor's display name.
func (s Sensor) Name() string {
	return s.name
}

// Type returns the adapter type, [TypeIIO] or [TypeW1Therm].
func (s Sensor) Type() string {
	return s.kind
}

// Labels returns a copy of the sensor's labels.
// Returns nil if no labels are set.
func (s Sensor) Labels() map[string]string {
	return copyMap(s.labels)
}

// Params returns a copy of the adapter parameters.
func (s Sensor) Params() map[string]any {
	return maps.Clone(s.params)
}

// Param returns a single adapter parameter.
func (s Sensor) Param(key string) (any, bool) {
	v, ok := s.params[key]
	return v, ok
}

// Interval returns the sensor's polling interval, or 0 if the monitor's
// default applies.
func (s Sensor) Interval() time.Duration {
	d, _ := s.params[sensor.ParamInterval].(time.Duration)
	return d
}

// Convert returns the sensor's conversion, or nil if the adapter resolves
// one from the channel.
func (s Sensor) Convert() ConvertFunc {
	return s.convert
}

// NewSensor creates a [Sensor] of the given type.
//
// The adapter-specific checks (device, channel, sensorSerial, interval) run
// when the sensor is handed to [New] or [ReadOnce], once defaults are known.
//
// Returns an error if the name is empty, the type is unknown, or an option
// is invalid.
//
// Example:
//
//	s, err := sensorpoll.NewSensor("Air temperature", sensorpoll.TypeIIO,
//	    sensorpoll.WithDevice("iio:device0"),
//	    sensorpoll.WithChannel("in_temp_input"),
//	    sensorpoll.WithInterval(5*time.Second),
//	)
func NewSensor(name, kind string, opts ...SensorOption) (Sensor, error) {
	if name == "" {
		return Sensor{}, errors.New("sensor name cannot be empty")
	}
	if _, err := sensor.Lookup(kind); err != nil {
		return Sensor{}, err
	}

	cfg := &sensorConfig{
		params: make(map[string]any),
		labels: make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Sensor{}, fmt.Errorf("sensor %q: %w", name, err)
		}
	}

	return Sensor{
		name:    name,
		kind:    kind,
		params:  cfg.params,
		labels:  cfg.labels,
		convert: cfg.convert,
	}, nil
}

// adapterOptions builds the adapter configuration of s, writing to out.
// A sensor without an interval gets defaultInterval.
func (s Sensor) adapterOptions(root string, out sensor.Output, defaultInterval time.Duration) *sensor.Options {
	params := maps.Clone(s.params)
	if params == nil {
		params = make(map[string]any)
	}
	if _, ok := params[sensor.ParamInterval]; !ok && defaultInterval > 0 {
		params[sensor.ParamInterval] = defaultInterval
	}

	return &sensor.Options{
		Output:  []sensor.Output{out},
		Params:  params,
		Convert: s.convert,
		Root:    root,
	}
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}
