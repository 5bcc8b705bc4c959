package sensor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jpalmerr/sensorpoll/internal/poller"
)

// Param keys of the iio adapter.
const (
	ParamDevice  = "device"
	ParamChannel = "channel"
)

// iioDevices is where the kernel lists industrial I/O devices, relative to
// the sysfs root.
const iioDevices = "bus/iio/devices"

// IIO reads one channel of a Linux industrial I/O device, for example
// /sys/bus/iio/devices/iio:device0/in_temp_input.
type IIO struct{}

// Check validates, in order: no inputs, one output, device, channel,
// interval, a conversion (configured or known for the channel), and retries.
func (IIO) Check(opts *Options) error {
	err := checkCommon(opts, func(params map[string]any) error {
		if err := checkString(params, ParamDevice); err != nil {
			return err
		}
		return checkString(params, ParamChannel)
	})
	if err != nil {
		return err
	}

	if opts.Convert == nil {
		channel := stringParam(opts.Params, ParamChannel)
		convert, ok := ChannelConverter(channel)
		if !ok {
			return fmt.Errorf("convert for channel %s must be specified", channel)
		}
		opts.Convert = convert
	}

	return applyRetries(opts.Params)
}

// Path returns <root>/bus/iio/devices/<device>/<channel>.
func (IIO) Path(opts *Options) string {
	return filepath.Join(opts.root(), iioDevices,
		stringParam(opts.Params, ParamDevice),
		stringParam(opts.Params, ParamChannel))
}

// PollConfig builds a configuration whose processing function rejects empty
// content, converts the text and writes the result to opts.Output[0].
func (a IIO) PollConfig(opts *Options) (poller.Config, error) {
	if len(opts.Output) != 1 || opts.Convert == nil {
		return poller.Config{}, fmt.Errorf("iio: options have not been checked")
	}

	convert := opts.Convert
	out := opts.Output[0]

	return poller.Config{
		FilePath: a.Path(opts),
		Interval: intervalParam(opts.Params),
		Retries:  retriesParam(opts.Params),
		Process: func(_ context.Context, data string) error {
			if strings.TrimSpace(data) == "" {
				return ErrEmptyData
			}
			value, err := convert(data)
			if err != nil {
				return fmt.Errorf("failed to convert reading: %w", err)
			}
			out.SetValue(value)
			return nil
		},
	}, nil
}

// Factory checks opts and starts polling the channel file.
func (a IIO) Factory(ctx context.Context, opts *Options, pollOpts ...poller.Option) (*poller.Handle, error) {
	return start(ctx, a, opts, pollOpts)
}
