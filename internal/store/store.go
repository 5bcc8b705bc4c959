package store

import "time"

// Reading is the last successful value of a sensor.
//
// Reading is the storage representation of a sensor's output slot, shaped for
// JSON serialization (used by the REST API and SSE). A sensor that has never
// produced a value has no Reading.
type Reading struct {
	// Name is the sensor's display name.
	Name string `json:"name"`

	// Type is the adapter that reads the sensor ("iio", "w1therm").
	Type string `json:"type"`

	// Path is the sysfs file the value was read from.
	Path string `json:"path"`

	// Value is the parsed reading.
	Value float64 `json:"value"`

	// Labels contains key-value metadata for grouping and filtering.
	Labels map[string]string `json:"labels"`

	// UpdatedAt is the time the value was written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for storing and subscribing to readings.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Update stores a reading and notifies all subscribers.
	// The reading is keyed by Name, so subsequent updates replace previous values.
	Update(reading Reading)

	// Get returns the reading stored under name.
	Get(name string) (Reading, bool)

	// GetAll returns all currently stored readings, sorted by name.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []Reading

	// Subscribe returns a channel that receives reading updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Reading

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Reading)
}
