package sensorpoll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/sensorpoll/internal/metrics"
	"github.com/jpalmerr/sensorpoll/internal/poller"
	"github.com/jpalmerr/sensorpoll/internal/sensor"
	"github.com/jpalmerr/sensorpoll/internal/server"
	"github.com/jpalmerr/sensorpoll/internal/store"
)

const (
	defaultInterval    = 10 * time.Second
	defaultPort        = 8080
	defaultStopTimeout = 30 * time.Second
)

// Monitor is the main orchestrator for sensor polling and the status API.
//
// Monitor runs one poller per configured sensor, keeps the latest reading of
// each in memory, and serves them over HTTP. It is created using [New] with
// functional options and started with [Monitor.Start].
//
// The typical lifecycle is:
//
//	m, err := sensorpoll.New(sensorpoll.WithSensor(s))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	m.Start(ctx) // blocks until context cancelled
type Monitor struct {
	title            string
	sensors          []Sensor
	defaultInterval  time.Duration
	port             int
	sysfsRoot        string
	stopTimeout      time.Duration
	logger           *slog.Logger
	clock            clock.Clock
	readingCallbacks []ReadingCallback
	store            *store.MemoryStore
}

// New creates a new [Monitor] instance with the given options.
//
// At least one sensor must be configured via [WithSensor] or [WithSensors].
// Every sensor is checked by its adapter here, so a missing device, channel,
// serial or interval is reported before anything starts. Other options have
// defaults:
//   - Default interval: 10 seconds
//   - Port: 8080
//   - Sysfs root: /sys
//
// Returns an error if no sensors are configured, names collide, or a sensor
// or option is invalid.
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		sensors:         []Sensor{},
		defaultInterval: defaultInterval,
		port:            defaultPort,
		sysfsRoot:       sensor.DefaultRoot,
		stopTimeout:     defaultStopTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.sensors) == 0 {
		return nil, errors.New("at least one sensor is required")
	}

	// names key the store, the metrics and the API
	seen := make(map[string]bool, len(cfg.sensors))
	for _, s := range cfg.sensors {
		if seen[s.name] {
			return nil, fmt.Errorf("duplicate sensor name: %q", s.name)
		}
		seen[s.name] = true

		if err := checkSensor(s, cfg.sysfsRoot, cfg.defaultInterval); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.clock
	if clk == nil {
		clk = clock.New()
	}

	return &Monitor{
		title:            cfg.title,
		sensors:          cfg.sensors,
		defaultInterval:  cfg.defaultInterval,
		port:             cfg.port,
		sysfsRoot:        cfg.sysfsRoot,
		stopTimeout:      cfg.stopTimeout,
		logger:           logger,
		clock:            clk,
		readingCallbacks: cfg.readingCallbacks,
		store:            store.NewMemoryStore(),
	}, nil
}

// checkSensor runs the adapter checks of s against a throwaway output.
func checkSensor(s Sensor, root string, interval time.Duration) error {
	adapter, err := sensor.Lookup(s.kind)
	if err != nil {
		return fmt.Errorf("sensor %q: %w", s.name, err)
	}
	if err := adapter.Check(s.adapterOptions(root, &sensor.Slot{}, interval)); err != nil {
		return fmt.Errorf("sensor %q: %w", s.name, err)
	}
	return nil
}

// Start begins polling sensors and serving the status API.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - Every sensor is read after its first interval, then at that interval
//   - Each new value is stored, exported as a metric and passed to callbacks
//   - The status API listens on the configured port unless it is 0
//
// When ctx is cancelled, Start stops every poller and waits, up to the stop
// timeout, for cycles in flight to finish.
//
// Returns nil on graceful shutdown. Returns an error if a poller or the HTTP
// server fails to start, or if pollers do not drain in time.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("sensorpoll starting",
		"sensor_count", len(m.sensors),
		"sysfs_root", m.sysfsRoot,
		"default_interval", m.defaultInterval.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	handles, err := m.startSensors(ctx)
	if err != nil {
		return err
	}
	metrics.SetSensors(len(handles))
	defer m.resetMetrics()

	if m.port != 0 {
		httpServer := server.NewServer(m.store, m.port, m.title, metrics.Handler(), m.logger)
		if err := httpServer.Start(ctx); err != nil {
			_ = m.stopAll(handles)
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		m.logger.Info("status API available", "url", fmt.Sprintf("http://localhost:%d/api/readings", m.port))
	}

	<-ctx.Done()
	if err := m.stopAll(handles); err != nil {
		return err
	}
	m.logger.Info("sensorpoll stopped")
	return nil
}

// startSensors starts one poller per sensor. If any fails, the ones already
// running are stopped.
func (m *Monitor) startSensors(ctx context.Context) ([]*poller.Handle, error) {
	handles := make([]*poller.Handle, len(m.sensors))

	var g errgroup.Group
	for i, s := range m.sensors {
		g.Go(func() error {
			h, err := m.startSensor(ctx, s)
			if err != nil {
				return fmt.Errorf("sensor %q: %w", s.name, err)
			}
			handles[i] = h
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_ = m.stopAll(handles)
		return nil, err
	}
	return handles, nil
}

func (m *Monitor) startSensor(ctx context.Context, s Sensor) (*poller.Handle, error) {
	adapter, err := sensor.Lookup(s.kind)
	if err != nil {
		return nil, err
	}

	out := &readingOutput{
		sensor:    s,
		store:     m.store,
		callbacks: m.readingCallbacks,
		clock:     m.clock,
		logger:    m.logger,
	}
	opts := s.adapterOptions(m.sysfsRoot, out, m.defaultInterval)
	out.path = adapter.Path(opts)

	h, err := adapter.Factory(ctx, opts,
		poller.WithClock(m.clock),
		poller.WithLogger(m.logger.With("sensor", s.name)),
		poller.WithAttemptHook(metrics.AttemptHook(s.name)),
	)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("sensor started", "sensor", s.name, "type", s.kind, "path", h.Path())
	return h, nil
}

// stopAll stops the given pollers in parallel and waits for them to drain.
func (m *Monitor) stopAll(handles []*poller.Handle) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.stopTimeout)
	defer cancel()

	var g errgroup.Group
	for _, h := range handles {
		if h == nil {
			continue
		}
		g.Go(func() error {
			if err := h.Stop(ctx); err != nil {
				return fmt.Errorf("failed to stop poller for %s: %w", h.Path(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// resetMetrics drops the series of every sensor once polling has stopped.
func (m *Monitor) resetMetrics() {
	metrics.SetSensors(0)
	for _, s := range m.sensors {
		metrics.Forget(s.name)
	}
}

// Sensors returns a copy of the configured sensors.
func (m *Monitor) Sensors() []Sensor {
	cp := make([]Sensor, len(m.sensors))
	copy(cp, m.sensors)
	return cp
}

// Port returns the configured HTTP port, 0 if the server is disabled.
func (m *Monitor) Port() int {
	return m.port
}

// SysfsRoot returns the directory sensor paths are built under.
func (m *Monitor) SysfsRoot() string {
	return m.sysfsRoot
}

// DefaultInterval returns the interval of sensors without their own.
func (m *Monitor) DefaultInterval() time.Duration {
	return m.defaultInterval
}

// Readings returns the latest reading of every sensor that has produced one,
// sorted by sensor name.
func (m *Monitor) Readings() []Reading {
	stored := m.store.GetAll()
	readings := make([]Reading, len(stored))
	for i, r := range stored {
		readings[i] = storeToPublicReading(r)
	}
	return readings
}

// readingOutput is the output slot of a running sensor. Each value written
// by the poller is stored, exported and passed to the callbacks.
type readingOutput struct {
	sensor    Sensor
	path      string
	store     store.Store
	callbacks []ReadingCallback
	clock     clock.Clock
	logger    *slog.Logger
}

// SetValue is called by the poller's worker, one cycle at a time.
func (o *readingOutput) SetValue(v float64) {
	reading := store.Reading{
		Name:      o.sensor.name,
		Type:      o.sensor.kind,
		Path:      o.path,
		Value:     v,
		Labels:    o.sensor.labels,
		UpdatedAt: o.clock.Now(),
	}

	// store first, callbacks fire after data is visible
	o.store.Update(reading)
	metrics.ObserveReading(o.sensor.name, v)

	if len(o.callbacks) > 0 {
		public := storeToPublicReading(reading)
		for _, cb := range o.callbacks {
			invokeCallbackSafe(cb, public, o.logger)
		}
	}

	o.logger.Debug("reading updated", "sensor", o.sensor.name, "value", v)
}

// storeToPublicReading converts a stored reading to the public type.
// Labels are copied so callers cannot mutate shared state.
func storeToPublicReading(r store.Reading) Reading {
	return Reading{
		SensorName: r.Name,
		Type:       r.Type,
		Path:       r.Path,
		Value:      r.Value,
		Labels:     copyMap(r.Labels),
		UpdatedAt:  r.UpdatedAt,
	}
}
