// Package metrics exposes Prometheus instrumentation for sensor polling.
//
// Collectors are registered with the default registry, and [Handler] serves
// them in the text exposition format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/sensorpoll/internal/poller"
)

// Failure kinds, by the stage of the attempt that failed.
const (
	KindIO      = "io"
	KindContent = "content"
)

var (
	readAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorpoll_read_attempts_total",
			Help: "Total number of sensor read attempts, retries included",
		},
		[]string{"sensor"},
	)

	readFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorpoll_read_failures_total",
			Help: "Total number of failed sensor read attempts",
		},
		[]string{"sensor", "kind"}, // io or content
	)

	updates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorpoll_updates_total",
			Help: "Total number of readings written to a sensor's output",
		},
		[]string{"sensor"},
	)

	value = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sensorpoll_value",
			Help: "Last value read from a sensor",
		},
		[]string{"sensor"},
	)

	sensors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sensorpoll_sensors",
			Help: "Number of sensors being polled",
		},
	)
)

// AttemptHook returns a poller hook counting attempts and failures of the
// named sensor. The poller calls it once per attempt.
func AttemptHook(sensor string) poller.AttemptHook {
	attempts := readAttempts.WithLabelValues(sensor)
	return func(stage poller.Stage, err error) {
		attempts.Inc()
		if err == nil {
			return
		}
		kind := KindIO
		if stage == poller.StageProcess {
			kind = KindContent
		}
		readFailures.WithLabelValues(sensor, kind).Inc()
	}
}

// ObserveReading records a value written to the named sensor's output.
func ObserveReading(sensor string, v float64) {
	updates.WithLabelValues(sensor).Inc()
	value.WithLabelValues(sensor).Set(v)
}

// SetSensors records the number of running sensors.
func SetSensors(n int) {
	sensors.Set(float64(n))
}

// Forget drops the per-sensor series of the named sensor.
func Forget(sensor string) {
	readAttempts.DeleteLabelValues(sensor)
	readFailures.DeletePartialMatch(prometheus.Labels{"sensor": sensor})
	updates.DeleteLabelValues(sensor)
	value.DeleteLabelValues(sensor)
}

// Handler serves the registered collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}
