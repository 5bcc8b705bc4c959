package sensorpoll

import "github.com/jpalmerr/sensorpoll/internal/sensor"

// ConvertFunc turns the raw text of a sensor file into a value.
//
// A ConvertFunc is called only with non-empty content. Returning an error
// fails the attempt, which is then retried like a failed read.
type ConvertFunc = sensor.ConvertFunc

// MilliConvert reads the leading integer of the file as thousandths:
// "21500\n" becomes 21.5. It suits in_temp_input and
// in_humidityrelative_input, whose unit is milli-degrees and milli-percent.
func MilliConvert(raw string) (float64, error) {
	return sensor.MilliConvert(raw)
}

// IntConvert returns the leading integer of the file unchanged.
func IntConvert(raw string) (float64, error) {
	return sensor.IntConvert(raw)
}

// ScaleConvert converts IIO raw channels: value = (raw + offset) * scale,
// with scale and offset as reported by the device's in_*_scale and
// in_*_offset attributes.
//
// Example:
//
//	s, err := sensorpoll.NewSensor("Pressure", sensorpoll.TypeIIO,
//	    sensorpoll.WithDevice("iio:device1"),
//	    sensorpoll.WithChannel("in_pressure_raw"),
//	    sensorpoll.WithConvert(sensorpoll.ScaleConvert(0.000625, 0)),
//	)
func ScaleConvert(scale, offset float64) ConvertFunc {
	return sensor.ScaleConvert(scale, offset)
}

// ParseConvert parses the shorthand used in configuration files:
// "milli", "int", "scale:<factor>" or "scale:<factor>,<offset>".
func ParseConvert(s string) (ConvertFunc, error) {
	return sensor.ParseConvert(s)
}
