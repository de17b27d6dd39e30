package trace

import "sync"

// RingBuffer is a concurrent-safe fixed-size history of run entries.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	count   int
}

// NewRingBuffer creates a ring buffer that holds up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 50
	}
	return &RingBuffer{entries: make([]Entry, size)}
}

// Add records e, overwriting the oldest entry when full.
func (rb *RingBuffer) Add(e Entry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.head] = e
	rb.head = (rb.head + 1) % len(rb.entries)
	rb.count = min(rb.count+1, len(rb.entries))
}

// Last returns up to n entries, oldest first.
func (rb *RingBuffer) Last(n int) []Entry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	n = min(n, rb.count)
	if n <= 0 {
		return nil
	}

	size := len(rb.entries)
	out := make([]Entry, n)
	start := (rb.head - n + size) % size
	for i := range n {
		out[i] = rb.entries[(start+i)%size]
	}
	return out
}

// Latest returns the most recent entry.
func (rb *RingBuffer) Latest() (Entry, bool) {
	last := rb.Last(1)
	if len(last) == 0 {
		return Entry{}, false
	}
	return last[0], true
}

// Count returns the number of entries currently stored.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}
