package sensor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jpalmerr/sensorpoll/internal/poller"
)

// DefaultRoot is the sysfs mount point adapters build their paths under.
const DefaultRoot = "/sys"

// Content errors returned by the processing functions. They fail the attempt
// and are retried like read errors.
var (
	ErrEmptyData  = errors.New("read data is empty")
	ErrInvalidCRC = errors.New("invalid CRC")
	ErrParse      = errors.New("parsing error")
)

// Output is the slot a successful cycle writes its parsed value into.
type Output interface {
	SetValue(v float64)
}

// Slot is an in-memory [Output].
//
// A Slot keeps the last value written. It is stale until overwritten: a
// failed cycle leaves it untouched.
type Slot struct {
	mu        sync.RWMutex
	value     float64
	valid     bool
	updatedAt time.Time
}

// SetValue stores v.
func (s *Slot) SetValue(v float64) {
	s.mu.Lock()
	s.value = v
	s.valid = true
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// Value returns the last stored value. ok is false if nothing was written yet.
func (s *Slot) Value() (v float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.valid
}

// UpdatedAt returns the time of the last write, or the zero time.
func (s *Slot) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Options is the configuration an adapter validates and starts from.
//
// Params holds the loosely typed fields as they come from a config file
// (device, channel, sensorSerial, interval, retries). Check normalizes it in
// place: retries gets its default and Convert gets resolved.
type Options struct {
	Input  []Output
	Output []Output
	Params map[string]any

	// Convert overrides the conversion of raw text for adapters that use one.
	Convert ConvertFunc

	// Root is the sysfs mount point. Empty means [DefaultRoot].
	Root string
}

func (o *Options) root() string {
	if o.Root == "" {
		return DefaultRoot
	}
	return o.Root
}

// Adapter validates sensor options and turns them into a running poller.
type Adapter interface {
	// Check validates opts and fills in defaults. It fails fast with a
	// distinct error per condition.
	Check(opts *Options) error

	// Path returns the sensor file opts point to.
	Path(opts *Options) string

	// PollConfig builds the poller configuration, including the processing
	// function that writes opts.Output[0]. opts must have passed Check.
	PollConfig(opts *Options) (poller.Config, error)

	// Factory checks opts, builds the configuration and starts the poller.
	Factory(ctx context.Context, opts *Options, pollOpts ...poller.Option) (*poller.Handle, error)
}

// Registered sensor types.
const (
	TypeIIO     = "iio"
	TypeW1Therm = "w1therm"
)

var adapters = map[string]Adapter{
	TypeIIO:     IIO{},
	TypeW1Therm: W1Therm{},
}

// Lookup returns the adapter registered for a sensor type.
func Lookup(kind string) (Adapter, error) {
	a, ok := adapters[kind]
	if !ok {
		return nil, fmt.Errorf("unknown sensor type %q (expected one of %v)", kind, Types())
	}
	return a, nil
}

// Types returns the registered sensor types, sorted.
func Types() []string {
	types := make([]string, 0, len(adapters))
	for k := range adapters {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// start is the shared body of every adapter's Factory.
func start(ctx context.Context, a Adapter, opts *Options, pollOpts []poller.Option) (*poller.Handle, error) {
	if err := a.Check(opts); err != nil {
		return nil, err
	}
	cfg, err := a.PollConfig(opts)
	if err != nil {
		return nil, err
	}
	return poller.Start(ctx, cfg, pollOpts...)
}
