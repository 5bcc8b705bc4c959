// Package config provides YAML configuration parsing for sensorpoll.
//
// This package enables running sensorpoll as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	sysfs_root: /sys
//	default_interval: 10s
//
//	sensors:
//	  - name: Air temperature
//	    type: iio
//	    device: iio:device0
//	    channel: in_temp_input
//	    interval: 5s
//
//	  - name: Tank
//	    type: w1therm
//	    sensorSerial: ${TANK_PROBE:-28-0000075a1b2c}
//
//	grids:
//	  - name: Chamber
//	    type: iio
//	    dimensions:
//	      device: [iio:device0, iio:device1]
//	      channel: [in_temp_input, in_humidityrelative_input]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/sensorpoll/internal/sensor"
)

const (
	defaultPort     = 8080
	defaultInterval = 10 * time.Second
)

// Config is the root configuration structure for sensorpoll.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is reported by the status API. Defaults to "sensorpoll" if not set.
	Title string `yaml:"title"`

	// Port is the status API port. 0 disables the server. Defaults to 8080.
	Port *int `yaml:"port" validate:"omitempty,min=0,max=65535"`

	// SysfsRoot is where sysfs is mounted. Defaults to /sys.
	SysfsRoot string `yaml:"sysfs_root"`

	// DefaultInterval is the polling interval of sensors without their own.
	// Defaults to 10s.
	DefaultInterval Duration `yaml:"default_interval"`

	// DefaultRetries is the retry count of sensors without their own.
	// If not specified, each adapter's default (3) applies.
	DefaultRetries *int `yaml:"default_retries" validate:"omitempty,min=0"`

	// Sensors defines individual sensors.
	Sensors []SensorConfig `yaml:"sensors"`

	// Grids defines sensor grids that expand via cartesian product.
	Grids []GridConfig `yaml:"grids"`
}

// SensorConfig defines a single sensor.
//
// Which parameters are required depends on the type: iio needs device and
// channel, w1therm needs sensorSerial. String parameters support environment
// variable substitution: ${VAR} or ${VAR:-default}.
type SensorConfig struct {
	// Name is the display name, unique across the file.
	Name string `yaml:"name" validate:"required"`

	// Type selects the adapter: "iio" or "w1therm".
	Type string `yaml:"type" validate:"required,oneof=iio w1therm"`

	// Device is the IIO device directory, e.g. iio:device0.
	Device string `yaml:"device"`

	// Channel is the IIO channel file, e.g. in_temp_input.
	Channel string `yaml:"channel"`

	// SensorSerial is the 1-Wire serial of a w1therm probe.
	SensorSerial string `yaml:"sensorSerial"`

	// Interval is the polling interval for this sensor.
	// If not specified, uses the global default_interval.
	Interval Duration `yaml:"interval" validate:"gte=0"`

	// Retries is the number of extra attempts per cycle.
	Retries *int `yaml:"retries" validate:"omitempty,min=0"`

	// Convert is the conversion shorthand for iio sensors:
	// "milli", "int", "scale:<factor>" or "scale:<factor>,<offset>".
	Convert string `yaml:"convert"`

	// Labels are metadata key-value pairs for grouping/filtering.
	Labels map[string]string `yaml:"labels"`
}

// GridConfig defines a sensor grid that expands via cartesian product.
//
// Each dimension key is a sensor parameter (device, channel or
// sensorSerial). With dimensions {device: [iio:device0, iio:device1],
// channel: [in_temp_input, in_humidityrelative_input]} the grid expands to 4
// sensors.
type GridConfig struct {
	// Name is the base name for generated sensors.
	Name string `yaml:"name" validate:"required"`

	// Type selects the adapter for all generated sensors.
	Type string `yaml:"type" validate:"required,oneof=iio w1therm"`

	// Dimensions maps parameter names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions"`

	// Device, Channel and SensorSerial are shared by all generated sensors.
	// A dimension with the same key takes precedence.
	Device       string `yaml:"device"`
	Channel      string `yaml:"channel"`
	SensorSerial string `yaml:"sensorSerial"`

	// Interval is the polling interval for all generated sensors.
	Interval Duration `yaml:"interval" validate:"gte=0"`

	// Retries is the retry count for all generated sensors.
	Retries *int `yaml:"retries" validate:"omitempty,min=0"`

	// Convert is the conversion shorthand for all generated iio sensors.
	Convert string `yaml:"convert"`

	// Labels are additional labels applied to all generated sensors.
	// These are merged with auto-generated dimension labels.
	Labels map[string]string `yaml:"labels"`
}

// Duration wraps time.Duration for YAML unmarshalling.
//
// It accepts a duration string such as "5s" or a plain number of
// milliseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a string or number, got %v", node.Kind)
	}

	if node.Tag == "!!int" || node.Tag == "!!float" {
		var ms float64
		if err := node.Decode(&ms); err != nil {
			return err
		}
		if math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("invalid duration %q", node.Value)
		}
		*d = Duration(ms * float64(time.Millisecond))
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ListenPort returns the status API port, 0 if the server is disabled.
func (c *Config) ListenPort() int {
	if c.Port == nil {
		return defaultPort
	}
	return *c.Port
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Unknown keys are rejected. Environment variables are expanded in
// sysfs_root, device, channel, sensorSerial, convert and label values.
// Defaults are applied for Port (8080), SysfsRoot (/sys) and
// DefaultInterval (10s). Every sensor, including the ones grids expand to,
// is then checked by its adapter, so a config that parses is one the
// monitor can start.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == nil {
		port := defaultPort
		cfg.Port = &port
	}
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = sensor.DefaultRoot
	}
	if cfg.DefaultInterval == 0 {
		cfg.DefaultInterval = Duration(defaultInterval)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if err := validateStruct(c, ""); err != nil {
		return err
	}
	if c.DefaultInterval.Duration() <= 0 {
		return fmt.Errorf("default_interval must be positive, got %s", c.DefaultInterval.Duration())
	}

	expanded, err := expandEnvVars(c.SysfsRoot)
	if err != nil {
		return fmt.Errorf("sysfs_root: %w", err)
	}
	c.SysfsRoot = expanded

	for i := range c.Sensors {
		sc := &c.Sensors[i]

		where := fmt.Sprintf("sensors[%d]", i)
		if sc.Name != "" {
			where = fmt.Sprintf("sensors[%d] (%s)", i, sc.Name)
		}

		if err := validateStruct(sc, where); err != nil {
			return err
		}
		if err := expandParams(where, &sc.Device, &sc.Channel, &sc.SensorSerial, &sc.Convert, sc.Labels); err != nil {
			return err
		}
		if err := validateConvert(where, sc.Type, sc.Convert); err != nil {
			return err
		}
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		where := fmt.Sprintf("grids[%d]", i)
		if g.Name != "" {
			where = fmt.Sprintf("grids[%d] (%s)", i, g.Name)
		}

		if err := validateStruct(g, where); err != nil {
			return err
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("%s: at least one dimension is required", where)
		}
		for dimName, dimValues := range g.Dimensions {
			if !isDimension(dimName) {
				return fmt.Errorf("%s: unknown dimension %q (expected device, channel or sensorSerial)", where, dimName)
			}
			if len(dimValues) == 0 {
				return fmt.Errorf("%s: dimension %q has no values", where, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for j, v := range dimValues {
				expanded, err := expandEnvVars(v)
				if err != nil {
					return fmt.Errorf("%s: dimension %q: %w", where, dimName, err)
				}
				if expanded == "" {
					return fmt.Errorf("%s: dimension %q contains empty value at index %d", where, dimName, j)
				}
				if _, exists := seen[expanded]; exists {
					return fmt.Errorf("%s: dimension %q has duplicate value %q", where, dimName, expanded)
				}
				seen[expanded] = struct{}{}
				dimValues[j] = expanded
			}
		}

		if err := expandParams(where, &g.Device, &g.Channel, &g.SensorSerial, &g.Convert, g.Labels); err != nil {
			return err
		}
		if err := validateConvert(where, g.Type, g.Convert); err != nil {
			return err
		}
	}

	if len(c.Sensors) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one sensor or grid must be defined")
	}

	return c.checkSensors()
}

// checkSensors runs the adapter checks of every sensor the config
// describes and rejects duplicate names.
func (c *Config) checkSensors() error {
	seen := make(map[string]string)
	for _, e := range c.entries() {
		if prev, exists := seen[e.sensor.Name]; exists {
			return fmt.Errorf("%s: duplicate sensor name %q (first defined in %s)", e.where, e.sensor.Name, prev)
		}
		seen[e.sensor.Name] = e.where

		adapter, err := sensor.Lookup(e.sensor.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", e.where, err)
		}
		convert, err := e.sensor.convertFunc()
		if err != nil {
			return fmt.Errorf("%s: %w", e.where, err)
		}
		opts := &sensor.Options{
			Output:  []sensor.Output{&sensor.Slot{}},
			Params:  e.sensor.params(c.DefaultInterval, c.DefaultRetries),
			Convert: convert,
			Root:    c.SysfsRoot,
		}
		if err := adapter.Check(opts); err != nil {
			return fmt.Errorf("%s: %w", e.where, err)
		}
	}
	return nil
}

// expandParams expands environment variables in the string parameters of a
// sensor or grid, in place.
func expandParams(where string, device, channel, serial, convert *string, labels map[string]string) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"device", device},
		{"channel", channel},
		{"sensorSerial", serial},
		{"convert", convert},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.value)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", where, f.name, err)
		}
		*f.value = expanded
	}

	for k, v := range labels {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("%s: labels[%s]: %w", where, k, err)
		}
		labels[k] = expanded
	}
	return nil
}

// validateConvert fails on conversion shorthand that does not parse, or on
// a conversion given to a sensor type that does not use one.
func validateConvert(where, kind, convert string) error {
	if convert == "" {
		return nil
	}
	if kind != sensor.TypeIIO {
		return fmt.Errorf("%s: convert is only supported for iio sensors", where)
	}
	if _, err := sensor.ParseConvert(convert); err != nil {
		return fmt.Errorf("%s: convert: %w", where, err)
	}
	return nil
}
