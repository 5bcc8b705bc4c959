// Package store provides storage and pub/sub functionality for sensor readings.
//
// This package is internal to sensorpoll and keeps the latest reading of every
// sensor in memory. It implements a publish-subscribe pattern so the status
// API can stream readings to connected clients as they arrive.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Reading]: Storage representation of a sensor's last value
//
// The store is designed for concurrent access with proper synchronization.
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than stall a poller).
//
// Users of the sensorpoll library should not need to interact with this
// package directly. Storage is managed internally by the Monitor.
package store
