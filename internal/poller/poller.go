package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// DefaultRetries is the number of extra attempts a cycle makes after a failed
// read when the caller does not configure one.
const DefaultRetries = 3

// ProcessFunc turns the raw content of a sensor file into a side effect,
// typically writing a parsed value into an output slot.
//
// A non-nil error fails the attempt; the cycle then retries the read while it
// has retries left.
type ProcessFunc func(ctx context.Context, data string) error

// Stage identifies which step of an attempt produced a result.
type Stage string

const (
	// StageRead is the file read.
	StageRead Stage = "read"

	// StageProcess is the call to the configured [ProcessFunc].
	StageProcess Stage = "process"
)

// AttemptHook observes the outcome of every attempt. err is nil on success,
// in which case stage is [StageProcess].
type AttemptHook func(stage Stage, err error)

// Config describes what a poller reads and how often.
//
// Config is copied by [Start] and never modified afterwards.
type Config struct {
	// FilePath is the absolute path of the sensor file.
	FilePath string

	// Interval is the period of the ticker. The first read happens one
	// interval after Start.
	Interval time.Duration

	// Retries is the number of extra attempts per cycle after a failure.
	// Each cycle starts with the full budget.
	Retries int

	// Process is called with the file content after every successful read.
	Process ProcessFunc
}

func (c Config) validate() error {
	if c.FilePath == "" {
		return errors.New("file path is required")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.Retries < 0 {
		return errors.New("retries cannot be negative")
	}
	if c.Process == nil {
		return errors.New("process function is required")
	}
	return nil
}

type options struct {
	reader Reader
	clock  clock.Clock
	logger *slog.Logger
	hook   AttemptHook
}

// Option configures a poller started with [Start] or run with [Once].
type Option func(*options)

// WithReader replaces the filesystem [Reader].
func WithReader(r Reader) Option {
	return func(o *options) {
		if r != nil {
			o.reader = r
		}
	}
}

// WithClock replaces the clock that drives the ticker. Tests pass a mock.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAttemptHook registers a function called after every attempt.
//
// The hook is for instrumentation only; it cannot change the outcome of a
// cycle. It runs on the poller's worker goroutine and must not block.
func WithAttemptHook(hook AttemptHook) Option {
	return func(o *options) {
		o.hook = hook
	}
}

func buildOptions(opts []Option) options {
	o := options{
		reader: NewFileReader(),
		clock:  clock.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Handle controls a running poller.
//
// A poller owns one ticker goroutine and one worker goroutine. Ticks are
// counted into a queue and executed by the worker one at a time, in tick
// order. A tick that arrives while a cycle is still running waits for it;
// ticks are never dropped.
type Handle struct {
	cfg  Config
	opts options
	ctx  context.Context // cycle context, never cancelled by Stop

	ticker *clock.Ticker

	mu      sync.Mutex
	pending int
	busy    bool
	stopped bool

	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

// Start arms a repeating ticker of period cfg.Interval and returns a [Handle].
//
// No read happens until the first tick. Each tick runs one cycle: read the
// file, pass the content to cfg.Process, and on any failure retry the whole
// read-then-process step up to cfg.Retries times. A cycle that runs out of
// retries ends silently and the poller keeps going.
//
// Cancelling ctx stops scheduling like [Handle.Stop] does. It does not abort
// a cycle that is already running.
//
// Start returns an error only when cfg is invalid.
func Start(ctx context.Context, cfg Config, opts ...Option) (*Handle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	h := &Handle{
		cfg:  cfg,
		opts: buildOptions(opts),
		ctx:  context.WithoutCancel(ctx),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	// created synchronously so a mock clock advanced right after Start
	// already drives this ticker
	h.ticker = h.opts.clock.Ticker(cfg.Interval)

	go h.tick(ctx)
	go h.work()

	return h, nil
}

// Stop clears the ticker and waits until the poller is idle.
//
// Stop returns once the cycle in flight, including its retries, and any
// cycle already queued by an earlier tick have finished. It never aborts a
// running cycle. If ctx ends first, Stop returns ctx.Err(); the poller still
// drains in the background.
//
// Stop is safe to call multiple times and from multiple goroutines. Later
// calls return as soon as the poller is idle, immediately if it already is.
func (h *Handle) Stop(ctx context.Context) error {
	h.halt()

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel that is closed once the poller has been stopped and
// its last cycle has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Path returns the file this poller reads.
func (h *Handle) Path() string {
	return h.cfg.FilePath
}

// halt marks the poller stopped and releases the ticker goroutine.
func (h *Handle) halt() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()

	h.quitOnce.Do(func() { close(h.quit) })
	h.signal()
}

func (h *Handle) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// tick forwards ticker events to the worker queue until stopped.
func (h *Handle) tick(ctx context.Context) {
	defer h.ticker.Stop()

	for {
		select {
		case <-h.quit:
			return
		case <-ctx.Done():
			h.halt()
			return
		case <-h.ticker.C:
			h.enqueue()
		}
	}
}

func (h *Handle) enqueue() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.pending++
	h.mu.Unlock()

	h.signal()
}

// work runs queued cycles one at a time. It exits once the poller is stopped
// and the queue is empty.
func (h *Handle) work() {
	defer close(h.done)

	for {
		h.mu.Lock()
		if h.pending > 0 {
			h.pending--
			h.busy = true
			h.mu.Unlock()

			_ = runCycle(h.ctx, h.cfg, h.opts)

			h.mu.Lock()
			h.busy = false
			h.mu.Unlock()
			continue
		}
		stopped := h.stopped
		h.mu.Unlock()

		if stopped {
			return
		}
		<-h.wake
	}
}

// backlog reports the number of queued cycles and whether one is running.
func (h *Handle) backlog() (pending int, busy bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending, h.busy
}

// Once runs a single cycle synchronously, with the same retry policy as a
// ticking poller, and returns the error of the last attempt.
//
// Unlike a running [Handle], Once reports the failure to its caller. It is
// meant for one-shot reads such as a CLI probe.
func Once(ctx context.Context, cfg Config, opts ...Option) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	return runCycle(ctx, cfg, buildOptions(opts))
}

// runCycle performs one cycle. The retry budget is a local copy so that no
// two cycles ever share it.
func runCycle(ctx context.Context, cfg Config, o options) error {
	retries := cfg.Retries
	for {
		err := attempt(ctx, cfg, o)
		if err == nil || retries <= 0 {
			return err
		}
		retries--
	}
}

func attempt(ctx context.Context, cfg Config, o options) error {
	data, err := o.reader.ReadFile(ctx, cfg.FilePath)
	if err != nil {
		observe(o.hook, StageRead, err)
		return err
	}

	err = safeProcess(ctx, cfg.Process, data, o.logger)
	observe(o.hook, StageProcess, err)
	return err
}

func observe(hook AttemptHook, stage Stage, err error) {
	if hook != nil {
		hook(stage, err)
	}
}

// safeProcess calls process with panic recovery.
// A panic fails the attempt like any other error; the stack is logged with a
// correlation ID that is also part of the returned error.
func safeProcess(ctx context.Context, process ProcessFunc, data string, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			logger.Error("process panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("process panic (correlation_id: %s)", correlationID)
		}
	}()
	return process(ctx, data)
}
