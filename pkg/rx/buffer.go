// Package rx implements the receive side of the clockless LED protocol:
// a bounded capture buffer for observed edges and the batch decoder that
// turns a captured edge sequence back into bytes.
package rx

import (
	"ledrx/pkg/edge"
)

// Buffer is a bounded, append only store of captured edges.
//
// A Buffer has exactly one writer (the capture source calling PushEdge) and
// one reader that decodes after the capture quiesced. It never locks and
// never blocks; embedders that share a Buffer across goroutines must
// serialize access themselves.
type Buffer struct {
	config   Config
	edges    []edge.Edge
	finished bool
}

// New allocates a buffer sized and configured by config.
func New(config Config) *Buffer {
	b := &Buffer{}
	b.Configure(config, 0)
	return b
}

// Configure resets the buffer to empty and stores the capture policy.
// A capacity of 0 takes the capacity from config.BufferCapacity.
// Configure may be called again at any time to reconfigure.
func (b *Buffer) Configure(config Config, capacity int) {
	if capacity <= 0 {
		capacity = config.BufferCapacity
	}

	b.config = config
	b.edges = make([]edge.Edge, 0, capacity)
	b.finished = false
}

// PushEdge appends one observed edge and reports success.
// A push against a full or finished buffer is rejected with false and marks
// the buffer finished; overflow is a signal, never a panic, since pushes run
// in interrupt adjacent contexts.
func (b *Buffer) PushEdge(high bool, durationNs uint32) bool {
	if b.finished {
		return false
	}

	if len(b.edges) == cap(b.edges) {
		b.finished = true
		return false
	}

	b.edges = append(b.edges, edge.Edge{High: high, Ns: edge.Clamp(durationNs)})
	return true
}

// Finish marks the capture as complete. Further pushes are rejected.
func (b *Buffer) Finish() {
	b.finished = true
}

// EdgeCount returns the number of stored edges.
func (b *Buffer) EdgeCount() int {
	return len(b.edges)
}

// IsFinished reports whether the capture is complete, either marked
// explicitly or because the buffer overflowed.
func (b *Buffer) IsFinished() bool {
	return b.finished
}

// Capacity returns the number of edge slots.
func (b *Buffer) Capacity() int {
	return cap(b.edges)
}

// Config returns the capture policy the buffer was configured with.
func (b *Buffer) Config() Config {
	return b.config
}

// Edges returns the stored edges for decoding. The slice stays valid until
// the next Reset or Configure and must not be modified by the caller.
func (b *Buffer) Edges() []edge.Edge {
	return b.edges
}

// CopyEdges copies up to len(out) edges starting at offset into out and
// returns the number copied. It never mutates the buffer.
func (b *Buffer) CopyEdges(out []edge.Edge, offset int) int {
	if offset < 0 || offset >= len(b.edges) {
		return 0
	}
	return copy(out, b.edges[offset:])
}

// Reset discards all edges and clears the finished flag.
// The capture policy and the capacity are retained.
func (b *Buffer) Reset() {
	b.edges = b.edges[:0]
	b.finished = false
}
