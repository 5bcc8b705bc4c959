package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/sensorpoll/internal/poller"
)

func TestAttemptHook(t *testing.T) {
	const name = "hook-test"
	t.Cleanup(func() { Forget(name) })

	hook := AttemptHook(name)
	hook(poller.StageRead, errors.New("no such file"))
	hook(poller.StageProcess, errors.New("invalid CRC"))
	hook(poller.StageProcess, nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(readAttempts.WithLabelValues(name)))
	assert.Equal(t, 1.0, testutil.ToFloat64(readFailures.WithLabelValues(name, KindIO)))
	assert.Equal(t, 1.0, testutil.ToFloat64(readFailures.WithLabelValues(name, KindContent)))
}

func TestObserveReading(t *testing.T) {
	const name = "reading-test"
	t.Cleanup(func() { Forget(name) })

	ObserveReading(name, 20.5)
	ObserveReading(name, 21.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(updates.WithLabelValues(name)))
	assert.Equal(t, 21.25, testutil.ToFloat64(value.WithLabelValues(name)))
}

func TestForget(t *testing.T) {
	const name = "forget-test"
	AttemptHook(name)(poller.StageRead, errors.New("gone"))
	ObserveReading(name, 1)
	Forget(name)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), `sensor="forget-test"`)
}

func TestSetSensors(t *testing.T) {
	SetSensors(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(sensors))
}

func TestHandler(t *testing.T) {
	const name = "handler-test"
	t.Cleanup(func() { Forget(name) })
	ObserveReading(name, 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sensorpoll_value{sensor="handler-test"} 3`)
}
