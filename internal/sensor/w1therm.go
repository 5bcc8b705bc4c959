package sensor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jpalmerr/sensorpoll/internal/poller"
)

// ParamSensorSerial is the 1-Wire serial of a w1therm probe, e.g. 28-0000075a1b2c.
const ParamSensorSerial = "sensorSerial"

const (
	w1Devices = "bus/w1/devices"
	w1Slave   = "w1_slave"
)

var (
	reCRC  = regexp.MustCompile(`YES$`)
	reTemp = regexp.MustCompile(`t=(-?[0-9]+)$`)
)

// W1Therm reads a 1-Wire thermal probe (DS18B20 family) through the w1_therm
// kernel driver. The w1_slave file looks like:
//
//	4b 46 7f ff 0f 10 e3 : crc=e3 YES
//	4b 46 7f ff 0f 10 e3 t=-16062
//
// The first line reports the CRC check, the second the temperature in
// thousandths of a degree Celsius.
type W1Therm struct{}

// Check validates, in order: no inputs, one output, sensorSerial, interval
// and retries.
func (W1Therm) Check(opts *Options) error {
	err := checkCommon(opts, func(params map[string]any) error {
		return checkString(params, ParamSensorSerial)
	})
	if err != nil {
		return err
	}
	return applyRetries(opts.Params)
}

// Path returns <root>/bus/w1/devices/<sensorSerial>/w1_slave.
func (W1Therm) Path(opts *Options) string {
	return filepath.Join(opts.root(), w1Devices, stringParam(opts.Params, ParamSensorSerial), w1Slave)
}

// PollConfig builds a configuration whose processing function verifies the
// CRC line, parses the temperature and writes it to opts.Output[0].
func (a W1Therm) PollConfig(opts *Options) (poller.Config, error) {
	if len(opts.Output) != 1 {
		return poller.Config{}, fmt.Errorf("w1therm: options have not been checked")
	}

	out := opts.Output[0]

	return poller.Config{
		FilePath: a.Path(opts),
		Interval: intervalParam(opts.Params),
		Retries:  retriesParam(opts.Params),
		Process: func(_ context.Context, data string) error {
			value, err := parseW1Slave(data)
			if err != nil {
				return err
			}
			out.SetValue(value)
			return nil
		},
	}, nil
}

// Factory checks opts and starts polling the probe.
func (a W1Therm) Factory(ctx context.Context, opts *Options, pollOpts ...poller.Option) (*poller.Handle, error) {
	return start(ctx, a, opts, pollOpts)
}

// parseW1Slave returns the temperature in degrees Celsius.
func parseW1Slave(data string) (float64, error) {
	lines := strings.Split(data, "\n")

	if !reCRC.MatchString(lines[0]) {
		return 0, ErrInvalidCRC
	}

	if len(lines) < 2 {
		return 0, ErrParse
	}
	m := reTemp.FindStringSubmatch(lines[1])
	if m == nil {
		return 0, ErrParse
	}

	milli, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return float64(milli) / 1000, nil
}
