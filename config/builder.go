package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/jpalmerr/sensorpoll"
	"github.com/jpalmerr/sensorpoll/internal/sensor"
)

// entry is one sensor the config describes, with the location used in error
// messages.
type entry struct {
	where  string
	sensor SensorConfig
}

// entries returns direct sensors followed by expanded grids.
func (c *Config) entries() []entry {
	var out []entry

	for i, sc := range c.Sensors {
		out = append(out, entry{
			where:  fmt.Sprintf("sensors[%d] (%s)", i, sc.Name),
			sensor: sc,
		})
	}

	for i, gc := range c.Grids {
		for _, sc := range expandGrid(gc) {
			out = append(out, entry{
				where:  fmt.Sprintf("grids[%d] (%s)", i, sc.Name),
				sensor: sc,
			})
		}
	}

	return out
}

// BuildSensors converts parsed configuration into SDK Sensor objects.
//
// It processes both direct sensors and grids, returning a combined slice.
// Grid dimensions are expanded via cartesian product. Sensors without their
// own retries get default_retries.
func BuildSensors(cfg *Config) ([]sensorpoll.Sensor, error) {
	var sensors []sensorpoll.Sensor

	for _, e := range cfg.entries() {
		s, err := buildSensor(e.sensor, cfg.DefaultRetries)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.where, err)
		}
		sensors = append(sensors, s)
	}

	return sensors, nil
}

// MonitorOptions returns the options that configure a [sensorpoll.Monitor]
// from cfg: its sensors, port, sysfs root, default interval and title.
func MonitorOptions(cfg *Config) ([]sensorpoll.Option, error) {
	sensors, err := BuildSensors(cfg)
	if err != nil {
		return nil, err
	}

	opts := []sensorpoll.Option{
		sensorpoll.WithSensors(sensors...),
		sensorpoll.WithPort(cfg.ListenPort()),
		sensorpoll.WithSysfsRoot(cfg.SysfsRoot),
		sensorpoll.WithDefaultInterval(cfg.DefaultInterval.Duration()),
	}
	if cfg.Title != "" {
		opts = append(opts, sensorpoll.WithTitle(cfg.Title))
	}
	return opts, nil
}

// FindSensor builds the sensor called name.
func FindSensor(cfg *Config, name string) (sensorpoll.Sensor, error) {
	for _, e := range cfg.entries() {
		if e.sensor.Name == name {
			s, err := buildSensor(e.sensor, cfg.DefaultRetries)
			if err != nil {
				return sensorpoll.Sensor{}, fmt.Errorf("%s: %w", e.where, err)
			}
			return s, nil
		}
	}
	return sensorpoll.Sensor{}, fmt.Errorf("no sensor named %q in config", name)
}

// buildSensor converts a single SensorConfig to an SDK Sensor.
func buildSensor(sc SensorConfig, defaultRetries *int) (sensorpoll.Sensor, error) {
	var opts []sensorpoll.SensorOption

	if sc.Device != "" {
		opts = append(opts, sensorpoll.WithDevice(sc.Device))
	}
	if sc.Channel != "" {
		opts = append(opts, sensorpoll.WithChannel(sc.Channel))
	}
	if sc.SensorSerial != "" {
		opts = append(opts, sensorpoll.WithSerial(sc.SensorSerial))
	}

	if sc.Interval != 0 {
		opts = append(opts, sensorpoll.WithInterval(sc.Interval.Duration()))
	}

	if retries := retriesOrDefault(sc.Retries, defaultRetries); retries != nil {
		opts = append(opts, sensorpoll.WithRetries(*retries))
	}

	if sc.Convert != "" {
		fn, err := sensorpoll.ParseConvert(sc.Convert)
		if err != nil {
			return sensorpoll.Sensor{}, err
		}
		opts = append(opts, sensorpoll.WithConvert(fn))
	}

	if len(sc.Labels) > 0 {
		opts = append(opts, sensorpoll.WithLabels(mapToKeyValuePairs(sc.Labels)...))
	}

	return sensorpoll.NewSensor(sc.Name, sc.Type, opts...)
}

// params returns the adapter parameters of sc, with the config defaults
// filled in.
func (sc SensorConfig) params(defaultInterval Duration, defaultRetries *int) map[string]any {
	params := make(map[string]any)
	if sc.Device != "" {
		params[sensor.ParamDevice] = sc.Device
	}
	if sc.Channel != "" {
		params[sensor.ParamChannel] = sc.Channel
	}
	if sc.SensorSerial != "" {
		params[sensor.ParamSensorSerial] = sc.SensorSerial
	}

	interval := sc.Interval
	if interval == 0 {
		interval = defaultInterval
	}
	params[sensor.ParamInterval] = time.Duration(interval)

	if retries := retriesOrDefault(sc.Retries, defaultRetries); retries != nil {
		params[sensor.ParamRetries] = *retries
	}
	return params
}

// convertFunc parses the conversion shorthand of sc, nil if it has none.
func (sc SensorConfig) convertFunc() (sensor.ConvertFunc, error) {
	if sc.Convert == "" {
		return nil, nil
	}
	return sensor.ParseConvert(sc.Convert)
}

func retriesOrDefault(retries, defaultRetries *int) *int {
	if retries != nil {
		return retries
	}
	return defaultRetries
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// isDimension reports whether key names a parameter a grid can vary.
func isDimension(key string) bool {
	switch key {
	case sensor.ParamDevice, sensor.ParamChannel, sensor.ParamSensorSerial:
		return true
	default:
		return false
	}
}

// expandGrid expands a GridConfig into one SensorConfig per combination of
// dimension values.
func expandGrid(gc GridConfig) []SensorConfig {
	combinations := cartesianProduct(gc.Dimensions)

	sensors := make([]SensorConfig, 0, len(combinations))
	for _, combo := range combinations {
		// merge grid labels with dimension labels
		labels := make(map[string]string)
		for k, v := range gc.Labels {
			labels[k] = v
		}
		for k, v := range combo {
			labels[k] = v
		}

		sc := SensorConfig{
			Name:         buildGridName(gc.Name, combo),
			Type:         gc.Type,
			Device:       gc.Device,
			Channel:      gc.Channel,
			SensorSerial: gc.SensorSerial,
			Interval:     gc.Interval,
			Retries:      gc.Retries,
			Convert:      gc.Convert,
			Labels:       labels,
		}
		for k, v := range combo {
			switch k {
			case sensor.ParamDevice:
				sc.Device = v
			case sensor.ParamChannel:
				sc.Channel = v
			case sensor.ParamSensorSerial:
				sc.SensorSerial = v
			}
		}
		sensors = append(sensors, sc)
	}

	return sensors
}

// buildGridName creates a display name for a grid sensor.
func buildGridName(baseName string, combo map[string]string) string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	name := baseName
	for _, k := range keys {
		name += " " + combo[k]
	}
	return name
}

// cartesianProduct generates all combinations of dimension values.
func cartesianProduct(dimensions map[string][]string) []map[string]string {
	if len(dimensions) == 0 {
		return nil
	}

	// sort dimension keys for deterministic ordering
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// start with single empty combination
	result := []map[string]string{{}}

	for _, key := range keys {
		values := dimensions[key]
		var newResult []map[string]string

		for _, combo := range result {
			for _, val := range values {
				// copy existing combo and add new dimension
				newCombo := make(map[string]string)
				for k, v := range combo {
					newCombo[k] = v
				}
				newCombo[key] = val
				newResult = append(newResult, newCombo)
			}
		}
		result = newResult
	}

	return result
}
