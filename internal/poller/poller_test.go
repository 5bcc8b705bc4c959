package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	interval = time.Second
	waitFor  = 2 * time.Second
	tickStep = time.Millisecond
)

var errRead = errors.New("read failed")

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeReader counts reads and answers them with fn.
type fakeReader struct {
	calls atomic.Int32
	fn    func(call int) (string, error)
}

func (r *fakeReader) ReadFile(_ context.Context, _ string) (string, error) {
	n := int(r.calls.Add(1))
	if r.fn == nil {
		return "data", nil
	}
	return r.fn(n)
}

func (r *fakeReader) count() int {
	return int(r.calls.Load())
}

func failingReader() *fakeReader {
	return &fakeReader{fn: func(int) (string, error) { return "", errRead }}
}

// gatedProcess blocks every call until release is called for it.
type gatedProcess struct {
	mu      sync.Mutex
	calls   int
	waiters []chan struct{}
}

func (g *gatedProcess) process(ctx context.Context, _ string) error {
	ch := make(chan struct{})
	g.mu.Lock()
	g.calls++
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()
	<-ch
	return nil
}

func (g *gatedProcess) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *gatedProcess) release(i int) {
	g.mu.Lock()
	ch := g.waiters[i]
	g.mu.Unlock()
	close(ch)
}

func startPoller(t *testing.T, cfg Config, r Reader) (*Handle, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	h, err := Start(context.Background(), cfg, WithReader(r), WithClock(mock), WithLogger(testLogger()))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = h.Stop(ctx)
	})
	return h, mock
}

func waitIdle(t *testing.T, h *Handle) {
	t.Helper()
	require.Eventually(t, func() bool {
		pending, busy := h.backlog()
		return pending == 0 && !busy
	}, waitFor, tickStep)
}

func noopProcess(context.Context, string) error { return nil }

func TestStart_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing path",
			cfg:     Config{Interval: interval, Process: noopProcess},
			wantErr: "file path is required",
		},
		{
			name:    "zero interval",
			cfg:     Config{FilePath: "abc", Process: noopProcess},
			wantErr: "interval must be positive",
		},
		{
			name:    "negative interval",
			cfg:     Config{FilePath: "abc", Interval: -time.Second, Process: noopProcess},
			wantErr: "interval must be positive",
		},
		{
			name:    "negative retries",
			cfg:     Config{FilePath: "abc", Interval: interval, Retries: -1, Process: noopProcess},
			wantErr: "retries cannot be negative",
		},
		{
			name:    "missing process",
			cfg:     Config{FilePath: "abc", Interval: interval},
			wantErr: "process function is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Start(context.Background(), tt.cfg)
			assert.Nil(t, h)
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestPoller_ReadsAfterInterval(t *testing.T) {
	reader := &fakeReader{fn: func(int) (string, error) { return "testdata", nil }}

	var mu sync.Mutex
	var got []string
	process := func(_ context.Context, data string) error {
		mu.Lock()
		got = append(got, data)
		mu.Unlock()
		return nil
	}

	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Process: process}, reader)

	// nothing before the first tick
	mock.Add(interval / 2)
	assert.Equal(t, 0, reader.count())

	mock.Add(interval / 2)
	require.Eventually(t, func() bool { return reader.count() == 1 }, waitFor, tickStep)
	waitIdle(t, h)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"testdata"}, got)
	assert.Equal(t, "abc", h.Path())
}

func TestPoller_RetriesExactlyPerTick(t *testing.T) {
	for _, retries := range []int{0, 1, 3, 7} {
		reader := failingReader()
		var processed atomic.Int32
		process := func(context.Context, string) error {
			processed.Add(1)
			return nil
		}

		h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Retries: retries, Process: process}, reader)

		mock.Add(interval)
		require.Eventually(t, func() bool { return reader.count() == retries+1 }, waitFor, tickStep)
		waitIdle(t, h)
		assert.Equal(t, retries+1, reader.count(), "retries=%d", retries)

		// the budget is fresh for the next tick
		mock.Add(interval)
		require.Eventually(t, func() bool { return reader.count() == 2*(retries+1) }, waitFor, tickStep)
		waitIdle(t, h)
		assert.Equal(t, 2*(retries+1), reader.count(), "retries=%d", retries)

		assert.Zero(t, processed.Load())
	}
}

func TestPoller_RetryUntilSuccess(t *testing.T) {
	reader := &fakeReader{fn: func(call int) (string, error) {
		if call < 3 {
			return "", errRead
		}
		return "ok", nil
	}}
	var processed atomic.Int32
	process := func(context.Context, string) error {
		processed.Add(1)
		return nil
	}

	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Retries: 3, Process: process}, reader)

	mock.Add(interval)
	require.Eventually(t, func() bool { return processed.Load() == 1 }, waitFor, tickStep)
	waitIdle(t, h)

	assert.Equal(t, 3, reader.count())
	assert.EqualValues(t, 1, processed.Load())
}

func TestPoller_ProcessFailureIsRetried(t *testing.T) {
	reader := &fakeReader{}
	var processed atomic.Int32
	process := func(context.Context, string) error {
		processed.Add(1)
		return errors.New("bad content")
	}

	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Retries: 2, Process: process}, reader)

	mock.Add(interval)
	require.Eventually(t, func() bool { return processed.Load() == 3 }, waitFor, tickStep)
	waitIdle(t, h)

	assert.Equal(t, 3, reader.count())
	assert.EqualValues(t, 3, processed.Load())
}

func TestPoller_SerializesOverlappingTicks(t *testing.T) {
	reader := &fakeReader{}
	gate := &gatedProcess{}

	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Process: gate.process}, reader)

	mock.Add(interval)
	require.Eventually(t, func() bool { return gate.count() == 1 }, waitFor, tickStep)

	// second tick while the first process call is still pending
	mock.Add(interval)
	require.Eventually(t, func() bool {
		pending, busy := h.backlog()
		return pending == 1 && busy
	}, waitFor, tickStep)
	assert.Equal(t, 1, reader.count())

	gate.release(0)
	require.Eventually(t, func() bool { return reader.count() == 2 }, waitFor, tickStep)
	require.Eventually(t, func() bool { return gate.count() == 2 }, waitFor, tickStep)

	gate.release(1)
	waitIdle(t, h)
	assert.Equal(t, 2, reader.count())
}

func TestPoller_QueuedTicksRunInOrder(t *testing.T) {
	var order []int
	var mu sync.Mutex
	reader := &fakeReader{fn: func(call int) (string, error) {
		mu.Lock()
		order = append(order, call)
		mu.Unlock()
		return "x", nil
	}}
	gate := &gatedProcess{}

	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Process: gate.process}, reader)

	mock.Add(interval)
	require.Eventually(t, func() bool { return gate.count() == 1 }, waitFor, tickStep)

	for i := 0; i < 3; i++ {
		mock.Add(interval)
		want := i + 1
		require.Eventually(t, func() bool {
			pending, _ := h.backlog()
			return pending == want
		}, waitFor, tickStep)
	}

	for i := 0; i < 4; i++ {
		require.Eventually(t, func() bool { return gate.count() == i+1 }, waitFor, tickStep)
		gate.release(i)
	}
	waitIdle(t, h)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4}, order)
}

func TestHandle_StopPreventsFurtherReads(t *testing.T) {
	reader := &fakeReader{}
	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Process: noopProcess}, reader)

	mock.Add(interval)
	require.Eventually(t, func() bool { return reader.count() == 1 }, waitFor, tickStep)

	require.NoError(t, h.Stop(context.Background()))

	mock.Add(interval)
	mock.Add(interval)
	assert.Equal(t, 1, reader.count())

	select {
	case <-h.Done():
	default:
		t.Fatal("Done() should be closed after Stop returned")
	}
}

func TestHandle_StopWaitsForPendingProcess(t *testing.T) {
	reader := &fakeReader{}
	gate := &gatedProcess{}
	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Process: gate.process}, reader)

	mock.Add(interval)
	require.Eventually(t, func() bool { return gate.count() == 1 }, waitFor, tickStep)

	stopped := make(chan error, 1)
	go func() { stopped <- h.Stop(context.Background()) }()

	assert.Never(t, func() bool { return len(stopped) > 0 }, 50*time.Millisecond, tickStep)

	gate.release(0)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Stop() did not return after the pending process finished")
	}
}

func TestHandle_StopWaitsForRetries(t *testing.T) {
	release := make(chan struct{})
	reader := &fakeReader{fn: func(call int) (string, error) {
		if call == 1 {
			<-release
		}
		return "", errRead
	}}
	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Retries: 2, Process: noopProcess}, reader)

	mock.Add(interval)
	require.Eventually(t, func() bool { return reader.count() == 1 }, waitFor, tickStep)

	stopped := make(chan error, 1)
	go func() { stopped <- h.Stop(context.Background()) }()

	close(release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Stop() did not return")
	}
	assert.Equal(t, 3, reader.count())
}

func TestHandle_StopTwice(t *testing.T) {
	h, _ := startPoller(t, Config{FilePath: "abc", Interval: interval, Process: noopProcess}, &fakeReader{})

	require.NoError(t, h.Stop(context.Background()))
	require.NoError(t, h.Stop(context.Background()))
}

func TestHandle_ConcurrentStop(t *testing.T) {
	for i := 0; i < 50; i++ {
		mock := clock.NewMock()
		h, err := Start(context.Background(), Config{FilePath: "abc", Interval: interval, Process: noopProcess},
			WithReader(&fakeReader{}), WithClock(mock))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, h.Stop(context.Background()))
			}()
		}
		mock.Add(interval)
		wg.Wait()
	}
}

func TestHandle_StopContextExpires(t *testing.T) {
	gate := &gatedProcess{}
	h, mock := startPoller(t, Config{FilePath: "abc", Interval: interval, Process: gate.process}, &fakeReader{})

	mock.Add(interval)
	require.Eventually(t, func() bool { return gate.count() == 1 }, waitFor, tickStep)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, h.Stop(ctx), context.DeadlineExceeded)

	gate.release(0)
	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("poller did not drain after the process finished")
	}
}

func TestPoller_ParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{}
	mock := clock.NewMock()

	h, err := Start(ctx, Config{FilePath: "abc", Interval: interval, Process: noopProcess},
		WithReader(reader), WithClock(mock))
	require.NoError(t, err)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(waitFor):
		t.Fatal("poller did not stop after parent context cancellation")
	}

	mock.Add(interval)
	assert.Equal(t, 0, reader.count())
}

func TestPoller_CancellationDoesNotAbortCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := clock.NewMock()

	var seen error
	started := make(chan struct{})
	release := make(chan struct{})
	process := func(ctx context.Context, _ string) error {
		close(started)
		<-release
		seen = ctx.Err()
		return nil
	}

	h, err := Start(ctx, Config{FilePath: "abc", Interval: interval, Process: process},
		WithReader(&fakeReader{}), WithClock(mock))
	require.NoError(t, err)

	mock.Add(interval)
	<-started
	cancel()
	close(release)

	<-h.Done()
	assert.NoError(t, seen)
}

func TestPoller_ProcessPanicRecovery(t *testing.T) {
	reader := &fakeReader{}
	var calls atomic.Int32
	process := func(context.Context, string) error {
		calls.Add(1)
		panic("process panic: simulated failure")
	}

	var mu sync.Mutex
	var errs []error
	hook := func(stage Stage, err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	mock := clock.NewMock()
	h, err := Start(context.Background(), Config{FilePath: "abc", Interval: interval, Retries: 1, Process: process},
		WithReader(reader), WithClock(mock), WithLogger(testLogger()), WithAttemptHook(hook))
	require.NoError(t, err)
	defer func() { _ = h.Stop(context.Background()) }()

	mock.Add(interval)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, waitFor, tickStep)
	waitIdle(t, h)

	// the loop survives and keeps ticking
	mock.Add(interval)
	require.Eventually(t, func() bool { return calls.Load() == 4 }, waitFor, tickStep)
	waitIdle(t, h)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 4)
	assert.Contains(t, errs[0].Error(), "process panic")
	assert.Contains(t, errs[0].Error(), "correlation_id")
}

func TestPoller_AttemptHookStages(t *testing.T) {
	reader := &fakeReader{fn: func(call int) (string, error) {
		if call == 1 {
			return "", errRead
		}
		return "ok", nil
	}}

	type event struct {
		stage Stage
		err   error
	}
	var mu sync.Mutex
	var events []event
	hook := func(stage Stage, err error) {
		mu.Lock()
		events = append(events, event{stage, err})
		mu.Unlock()
	}

	mock := clock.NewMock()
	h, err := Start(context.Background(), Config{FilePath: "abc", Interval: interval, Retries: 1, Process: noopProcess},
		WithReader(reader), WithClock(mock), WithAttemptHook(hook))
	require.NoError(t, err)
	defer func() { _ = h.Stop(context.Background()) }()

	mock.Add(interval)
	require.Eventually(t, func() bool { return reader.count() == 2 }, waitFor, tickStep)
	waitIdle(t, h)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, StageRead, events[0].stage)
	assert.ErrorIs(t, events[0].err, errRead)
	assert.Equal(t, StageProcess, events[1].stage)
	assert.NoError(t, events[1].err)
}

func TestOnce(t *testing.T) {
	t.Run("returns last error after retries", func(t *testing.T) {
		reader := failingReader()
		err := Once(context.Background(), Config{FilePath: "abc", Interval: interval, Retries: 2, Process: noopProcess},
			WithReader(reader))
		require.ErrorIs(t, err, errRead)
		assert.Equal(t, 3, reader.count())
	})

	t.Run("success", func(t *testing.T) {
		reader := &fakeReader{}
		var got string
		process := func(_ context.Context, data string) error {
			got = data
			return nil
		}
		err := Once(context.Background(), Config{FilePath: "abc", Interval: interval, Process: process},
			WithReader(reader))
		require.NoError(t, err)
		assert.Equal(t, "data", got)
		assert.Equal(t, 1, reader.count())
	})

	t.Run("invalid config", func(t *testing.T) {
		err := Once(context.Background(), Config{Interval: interval, Process: noopProcess})
		require.EqualError(t, err, "file path is required")
	})
}
