// Package audio plays and records the sound produced by the APU.
package audio

import (
	"io"
	"sync"
)

// RingBuffer is a byte queue between the emulation goroutine and the
// audio device. When full the oldest bytes are dropped. Reads never block:
// an underrun is padded with silence so the device keeps its own pace.
// Partial reads stop on a frame boundary.
type RingBuffer struct {
	mu     sync.Mutex
	data   []byte
	frame  int
	read   int
	count  int
	closed bool
}

// NewRingBuffer creates a buffer holding at most capacity bytes, made of
// frames of frameSize bytes
func NewRingBuffer(capacity, frameSize int) *RingBuffer {
	if frameSize < 1 {
		frameSize = 1
	}
	capacity -= capacity % frameSize
	return &RingBuffer{data: make([]byte, capacity), frame: frameSize}
}

// Write queues p, overwriting the oldest data on overflow
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	size := len(rb.data)
	if n >= size {
		copy(rb.data, p[n-size:])
		rb.read = 0
		rb.count = size
		return n, nil
	}

	if over := rb.count + n - size; over > 0 {
		rb.read = (rb.read + over) % size
		rb.count -= over
	}

	w := (rb.read + rb.count) % size
	c := copy(rb.data[w:], p)
	copy(rb.data, p[c:])
	rb.count += n
	return n, nil
}

// Read fills p with queued bytes followed by zeros. After Close it drains
// what is left and then returns io.EOF.
func (rb *RingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed && rb.count == 0 {
		return 0, io.EOF
	}

	n := len(p)
	if n > rb.count {
		n = rb.count
	}
	n -= n % rb.frame
	c := copy(p[:n], rb.data[rb.read:])
	copy(p[c:n], rb.data)
	rb.read = (rb.read + n) % len(rb.data)
	rb.count -= n

	if rb.closed {
		if n == 0 {
			rb.count = 0
			return 0, io.EOF
		}
		return n, nil
	}
	clear(p[n:])
	return len(p), nil
}

// Buffered returns the number of queued bytes
func (rb *RingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Clear drops all queued bytes
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.read = 0
	rb.count = 0
}

// Close marks the end of the stream
func (rb *RingBuffer) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	return nil
}
