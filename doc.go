// Package sensorpoll polls Linux sysfs sensors on a fixed interval and keeps
// the latest reading of each one available in memory, over HTTP and as
// Prometheus metrics.
//
// A sensor is a file the kernel exposes under /sys: an industrial I/O
// channel such as /sys/bus/iio/devices/iio:device0/in_temp_input, or the
// w1_slave file of a 1-Wire thermal probe. Every sensor gets its own poller
// that reads the file, parses it, and writes the value. A failed read or a
// malformed file is retried a bounded number of times and then dropped; the
// previous value stays in place.
//
// # Quick Start
//
// Describe sensors and start the monitor with graceful shutdown:
//
//	s, _ := sensorpoll.NewSensor("Air", sensorpoll.TypeIIO,
//	    sensorpoll.WithDevice("iio:device0"),
//	    sensorpoll.WithChannel("in_temp_input"),
//	)
//	m, _ := sensorpoll.New(sensorpoll.WithSensor(s))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	m.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// sensorpoll uses the functional options pattern for configuration:
//
//	m, err := sensorpoll.New(
//	    sensorpoll.WithSensors(air, tank),
//	    sensorpoll.WithDefaultInterval(5 * time.Second),
//	    sensorpoll.WithPort(9090),
//	    sensorpoll.WithSysfsRoot("/host/sys"),
//	)
//
// Sensors are configured with options too:
//
//	tank, err := sensorpoll.NewSensor("Tank", sensorpoll.TypeW1Therm,
//	    sensorpoll.WithSerial("28-0000075a1b2c"),
//	    sensorpoll.WithInterval(2 * time.Second),
//	    sensorpoll.WithRetries(5),
//	    sensorpoll.WithLabels("zone", "greenhouse"),
//	)
//
// # Sensor Types
//
//   - [TypeIIO]: one channel of an IIO device. in_temp_input and
//     in_humidityrelative_input are converted from thousandths by default;
//     other channels need [WithConvert].
//   - [TypeW1Therm]: a DS18B20-family probe. The CRC line must end in YES and
//     the temperature is reported in degrees Celsius.
//
// Conversions for IIO channels are provided by [MilliConvert], [IntConvert]
// and [ScaleConvert], or parsed from configuration shorthand with
// [ParseConvert].
//
// # Architecture
//
// sensorpoll consists of several internal packages (under internal/):
//
//   - internal/poller: Interval-driven file poller with bounded retries
//   - internal/sensor: The iio and w1therm adapters
//   - internal/store: In-memory storage with pub/sub for real-time updates
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/metrics: Prometheus collectors for attempts, failures and values
//
// The internal packages are not part of the public API and may change
// without notice.
package sensorpoll
