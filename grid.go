package sensorpoll

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NewSensorGrid creates multiple sensors of one type from dimensions using
// cartesian product expansion.
//
// Each dimension key is an adapter parameter (for example "device",
// "channel" or "sensorSerial") and each combination of values becomes one
// sensor with those parameters set.
//
// Each sensor name includes dimension values in the format:
// "Base Name (val1/val2)" (values from alphabetically sorted keys).
//
// Labels are automatically added from dimension values. Static labels from
// [WithGridLabels] take precedence over dimension labels on collision.
//
// Example:
//
//	sensors, err := NewSensorGrid("Chamber", TypeIIO,
//	    WithDimensions(map[string][]string{
//	        "device":  {"iio:device0", "iio:device1"},
//	        "channel": {"in_temp_input", "in_humidityrelative_input"},
//	    }),
//	    WithGridInterval(2*time.Second),
//	)
//	// Returns 4 sensors, usable with WithSensors(sensors...)
func NewSensorGrid(baseName, kind string, opts ...GridOption) ([]Sensor, error) {
	if strings.TrimSpace(baseName) == "" {
		return nil, errors.New("base name cannot be empty")
	}

	cfg := &gridConfig{
		staticLabels: make(map[string]string),
		params:       make(map[string]any),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	combinations := cartesianProduct(cfg.dimensions)
	if len(combinations) == 0 {
		return nil, nil
	}

	sensors := make([]Sensor, 0, len(combinations))
	for _, combo := range combinations {
		name := formatSensorName(baseName, combo)

		// merge labels: dimension first, static overrides
		labels := mergeMaps(combo, cfg.staticLabels)

		sOpts := []SensorOption{
			WithLabels(flattenMap(labels)...),
		}
		for k, v := range cfg.params {
			sOpts = append(sOpts, WithParam(k, v))
		}
		for k, v := range combo {
			sOpts = append(sOpts, WithParam(k, v))
		}
		if cfg.convert != nil {
			sOpts = append(sOpts, WithConvert(cfg.convert))
		}

		s, err := NewSensor(name, kind, sOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create sensor '%s': %w", name, err)
		}
		sensors = append(sensors, s)
	}

	return sensors, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}

	result := make([]map[string]string, 0, total)

	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// increment indices (rightmost first)
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

// formatSensorName creates a name in the format "Base (v1/v2)".
// Values are ordered by sorted keys for consistent naming.
func formatSensorName(baseName string, combo map[string]string) string {
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = combo[k]
	}
	return fmt.Sprintf("%s (%s)", baseName, strings.Join(parts, "/"))
}

// mergeMaps merges multiple maps, with later maps taking precedence.
func mergeMaps(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// flattenMap converts a map to a slice of key-value pairs for variadic functions.
// Keys are sorted for deterministic output.
func flattenMap(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(m)*2)
	for _, k := range keys {
		result = append(result, k, m[k])
	}
	return result
}
