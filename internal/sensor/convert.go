package sensor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ConvertFunc turns the raw text of a sensor file into a value.
type ConvertFunc func(raw string) (float64, error)

// leadingInt matches the integer a sysfs attribute starts with.
var leadingInt = regexp.MustCompile(`^\s*([+-]?[0-9]+)`)

// channelConverters resolves the conversion for well-known IIO channels when
// none is configured. Both report thousandths of their unit.
var channelConverters = map[string]ConvertFunc{
	"in_temp_input":             MilliConvert,
	"in_humidityrelative_input": MilliConvert,
}

// ChannelConverter returns the default conversion for an IIO channel.
func ChannelConverter(channel string) (ConvertFunc, bool) {
	fn, ok := channelConverters[channel]
	return fn, ok
}

// parseLeadingInt returns the leading integer of raw, ignoring anything after
// it.
func parseLeadingInt(raw string) (int64, error) {
	m := leadingInt.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: no integer in %q", ErrParse, strings.TrimSpace(raw))
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return n, nil
}

// IntConvert returns the leading integer of raw unchanged.
func IntConvert(raw string) (float64, error) {
	n, err := parseLeadingInt(raw)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

// MilliConvert reads the leading integer of raw as thousandths and returns
// the whole value: "12345\n" becomes 12.345.
func MilliConvert(raw string) (float64, error) {
	n, err := parseLeadingInt(raw)
	if err != nil {
		return 0, err
	}
	return float64(n) / 1000, nil
}

// ScaleConvert returns a conversion for IIO raw channels:
// value = (raw + offset) * scale.
func ScaleConvert(scale, offset float64) ConvertFunc {
	return func(raw string) (float64, error) {
		n, err := parseLeadingInt(raw)
		if err != nil {
			return 0, err
		}
		return (float64(n) + offset) * scale, nil
	}
}

// ParseConvert parses conversion shorthand.
//
// Supported formats:
//   - "milli" → [MilliConvert]
//   - "int" → [IntConvert]
//   - "scale:<factor>" → [ScaleConvert] with a zero offset
//   - "scale:<factor>,<offset>" → [ScaleConvert]
func ParseConvert(s string) (ConvertFunc, error) {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, ":"); idx != -1 {
		kind, value := s[:idx], s[idx+1:]
		if kind != "scale" {
			return nil, fmt.Errorf("unknown convert type %q", kind)
		}

		factorStr, offsetStr, hasOffset := strings.Cut(value, ",")
		factor, err := strconv.ParseFloat(strings.TrimSpace(factorStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scale factor %q: %w", factorStr, err)
		}
		var offset float64
		if hasOffset {
			offset, err = strconv.ParseFloat(strings.TrimSpace(offsetStr), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid scale offset %q: %w", offsetStr, err)
			}
		}
		return ScaleConvert(factor, offset), nil
	}

	switch s {
	case "milli":
		return MilliConvert, nil
	case "int":
		return IntConvert, nil
	default:
		return nil, fmt.Errorf("unknown convert %q (expected 'milli', 'int', or 'scale:factor[,offset]')", s)
	}
}
