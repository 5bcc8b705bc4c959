// Package server provides the HTTP status API of sensorpoll.
//
// This package is internal to sensorpoll and handles all HTTP concerns:
//
//   - REST API: JSON endpoints at "/api/readings" and "/api/readings/{name}"
//   - Server-Sent Events: Real-time updates at "/api/sse"
//   - Operations: "/metrics" for Prometheus and "/healthz" for probes
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the sensorpoll library should not need to interact with this
// package directly. The server is started automatically by [sensorpoll.Monitor.Start].
package server
