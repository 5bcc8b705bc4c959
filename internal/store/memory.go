package store

import (
	"maps"
	"sort"
	"sync"
)

// subscriberBuffer is the channel buffer of each subscription.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Readings are keyed by sensor name, with new readings replacing previous
// values. Subscribers receive updates via buffered channels. Updates are sent
// non-blocking; if a subscriber's buffer is full, the update is dropped for
// that subscriber.
type MemoryStore struct {
	mu          sync.RWMutex
	readings    map[string]Reading
	subscribers map[chan Reading]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		readings:    make(map[string]Reading),
		subscribers: make(map[chan Reading]struct{}),
	}
}

// Update stores a [Reading] and notifies all subscribers.
//
// The labels map is copied so the caller may reuse it.
func (m *MemoryStore) Update(reading Reading) {
	reading.Labels = maps.Clone(reading.Labels)

	m.mu.Lock()
	m.readings[reading.Name] = reading
	m.mu.Unlock()

	m.notifySubscribers(reading)
}

// Get returns the reading stored under name.
func (m *MemoryStore) Get(name string) (Reading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.readings[name]
	return r, ok
}

// GetAll returns a snapshot of all stored readings, sorted by name.
func (m *MemoryStore) GetAll() []Reading {
	m.mu.RLock()
	results := make([]Reading, 0, len(m.readings))
	for _, r := range m.readings {
		results = append(results, r)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Reading {
	ch := make(chan Reading, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Reading) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the reading to all active subscribers without
// blocking.
func (m *MemoryStore) notifySubscribers(reading Reading) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- reading:
		default:
			// subscriber is slow, drop the message
		}
	}
}
