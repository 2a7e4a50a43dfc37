package ring_buffer

import "sync"

// Buffer holds the most recent fixed number of samples. Appending evicts the
// oldest samples; the length never changes. The mutex is held only while
// copying, so the capture path never waits on slow work.
type Buffer struct {
	mu     sync.Mutex
	buffer []float32
	head   int
}

func New(size int) *Buffer {
	return &Buffer{
		buffer: make([]float32, size),
	}
}

// Append writes the newest samples over the oldest ones.
func (b *Buffer) Append(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(samples) >= len(b.buffer) {
		// Frame as large as the buffer: only its tail survives.
		copy(b.buffer, samples[len(samples)-len(b.buffer):])
		b.head = 0

		return
	}

	for _, s := range samples {
		b.buffer[b.head] = s
		b.head = (b.head + 1) % len(b.buffer)
	}
}

// Snapshot returns a copy of the buffer in temporal order, oldest first.
func (b *Buffer) Snapshot() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	samples := make([]float32, len(b.buffer))
	for i := 0; i < len(b.buffer); i++ {
		samples[i] = b.buffer[(b.head+i)%len(b.buffer)]
	}

	return samples
}

// Len returns the fixed buffer size.
func (b *Buffer) Len() int {
	return len(b.buffer)
}

// Clear zeroes the buffer without changing its size.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.buffer {
		b.buffer[i] = 0
	}

	b.head = 0
}
