package sensor

import (
	"errors"
	"fmt"
	"time"

	"github.com/jpalmerr/sensorpoll/internal/poller"
)

// Param keys shared by the adapters.
const (
	ParamInterval = "interval"
	ParamRetries  = "retries"
)

// checkArity enforces that a sensor has no inputs and exactly one output.
func checkArity(opts *Options) error {
	if len(opts.Input) != 0 {
		return errors.New("No inputs can be specified")
	}
	if len(opts.Output) != 1 {
		return errors.New("One output must be specified")
	}
	return nil
}

// checkString fails unless params[key] holds a string. An empty string is
// accepted.
func checkString(params map[string]any, key string) error {
	if _, ok := params[key].(string); !ok {
		return fmt.Errorf("%s must be specified", key)
	}
	return nil
}

// checkInterval fails unless the interval is a number of milliseconds or a
// time.Duration, and positive.
func checkInterval(params map[string]any) error {
	d, ok := toDuration(params[ParamInterval])
	if !ok {
		return errors.New("interval must be specified")
	}
	if d <= 0 {
		return errors.New("interval must be positive")
	}
	return nil
}

// applyRetries defaults retries to [poller.DefaultRetries] when it is not a
// number, and normalizes it to an int otherwise.
func applyRetries(params map[string]any) error {
	n, ok := toNumber(params[ParamRetries])
	if !ok {
		params[ParamRetries] = poller.DefaultRetries
		return nil
	}
	if n < 0 {
		return errors.New("retries cannot be negative")
	}
	params[ParamRetries] = int(n)
	return nil
}

// checkCommon runs the rules every adapter shares, in order, around the
// adapter-specific field checks.
func checkCommon(opts *Options, fields func(params map[string]any) error) error {
	if err := checkArity(opts); err != nil {
		return err
	}
	if opts.Params == nil {
		opts.Params = make(map[string]any)
	}
	if err := fields(opts.Params); err != nil {
		return err
	}
	return checkInterval(opts.Params)
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

func intervalParam(params map[string]any) time.Duration {
	d, _ := toDuration(params[ParamInterval])
	return d
}

func retriesParam(params map[string]any) int {
	n, ok := toNumber(params[ParamRetries])
	if !ok {
		return poller.DefaultRetries
	}
	return int(n)
}

// toDuration interprets plain numbers as milliseconds.
func toDuration(v any) (time.Duration, bool) {
	if d, ok := v.(time.Duration); ok {
		return d, true
	}
	ms, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
