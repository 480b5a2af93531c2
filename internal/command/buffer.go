package command

import "sync"

// ringBuffer provides memory-bounded FIFO storage for command output. When
// the total buffered bytes exceed maxBytes, the oldest chunks are evicted so
// a chatty process cannot grow memory without bound. Clients that need the
// full history should consume the output stream in real time.
type ringBuffer struct {
	mu       sync.Mutex
	maxBytes int64
	size     int64
	chunks   []OutputChunk
}

// newRingBuffer creates a ring buffer with the given byte cap.
// Defaults to 1MB when maxBytes <= 0.
func newRingBuffer(maxBytes int64) *ringBuffer {
	if maxBytes <= 0 {
		maxBytes = 1024 * 1024
	}
	return &ringBuffer{maxBytes: maxBytes}
}

// append adds a chunk, evicting the oldest chunks while over the cap.
func (b *ringBuffer) append(chunk OutputChunk) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = append(b.chunks, chunk)
	b.size += int64(len(chunk.Data))

	for b.size > b.maxBytes && len(b.chunks) > 0 {
		removed := b.chunks[0]
		b.size -= int64(len(removed.Data))
		b.chunks = b.chunks[1:]
	}
}

// snapshot returns a copy of the buffered chunks. Safe to call concurrently
// with append.
func (b *ringBuffer) snapshot() []OutputChunk {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]OutputChunk, len(b.chunks))
	copy(out, b.chunks)
	return out
}
