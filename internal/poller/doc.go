// Package poller implements the interval-driven file poller at the heart of
// sensorpoll.
//
// A poller reads one file on a fixed interval, hands the content to a
// caller-supplied [ProcessFunc], and retries a bounded number of times when
// either the read or the processing fails. At most one cycle runs at a time:
// ticks that arrive while a cycle is still running are queued and executed in
// order once it finishes.
//
// The main components are:
//
//   - [Start]: arms the ticker and returns a [Handle]
//   - [Handle]: stops scheduling and waits for the in-flight cycle
//   - [Once]: runs a single cycle synchronously and reports its error
//   - [Reader]: the read-whole-file primitive, [FileReader] by default
//
// Failures that survive all retries are dropped. A misread sensor never stops
// the polling loop and is never reported to the caller of Start; the output
// simply keeps its previous value.
//
// Users of the sensorpoll library should not need to interact with this
// package directly. Sensors are configured through the main sensorpoll package.
package poller
