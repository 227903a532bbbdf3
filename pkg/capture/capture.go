// Package capture feeds edges from a signal source into an rx.Buffer.
//
// All sources share one capture side policy: glitch filtering, skipping the
// first edges, idle termination and overflow tracking. The decoder never
// sees any of this, it only sees the buffer contents.
package capture

import (
	"errors"

	"ledrx/pkg/rx"
)

var (
	ErrUnsupported = errors.New("capture source not supported on this platform")
	ErrInvalidPull = errors.New("invalid pull configuration")
)

// Reason tells why a capture round completed.
type Reason int

const (
	// Terminated: a pulse longer than the idle threshold ended the frame.
	Terminated Reason = iota
	// Overflow: the buffer ran out of edge slots.
	Overflow
	// EOF: the source ran out of data (replay and synth sources).
	EOF
)

func (r Reason) String() string {
	switch r {
	case Terminated:
		return "terminated"
	case Overflow:
		return "overflow"
	case EOF:
		return "eof"
	}
	return "unknown"
}

// Completion reports one finished capture round.
type Completion struct {
	Reason Reason
	// Edges is the buffer fill at completion time.
	Edges int
}

// Source is one capture channel. Start arms a single capture round, whose
// completion is delivered on Done. A Source owns the capture policy but
// never decodes.
//
// Each logical channel owns exactly one buffer, handed over at construction
// time; there is no global channel registry.
type Source interface {
	Start() error
	Done() <-chan Completion
	Close() error
}

// feeder applies the shared capture policy in front of a buffer.
type feeder struct {
	buffer  *rx.Buffer
	config  rx.Config
	skipped int
}

func newFeeder(buffer *rx.Buffer, config rx.Config) *feeder {
	return &feeder{buffer: buffer, config: config}
}

// rearm prepares the feeder for the next capture round.
func (f *feeder) rearm() {
	f.skipped = 0
}

// offer runs one pulse through the policy. It reports whether the capture
// round is complete and why.
func (f *feeder) offer(high bool, ns uint32) (bool, Reason) {
	if f.config.SignalRangeMin > 0 && ns < f.config.SignalRangeMin {
		// glitch, drop
		return false, 0
	}

	if f.config.SignalRangeMax > 0 && ns > f.config.SignalRangeMax {
		// idle return, the terminating pulse itself is not data
		f.buffer.Finish()
		return true, Terminated
	}

	if f.skipped < f.config.SkipSignals {
		f.skipped++
		return false, 0
	}

	if !f.buffer.PushEdge(high, ns) {
		return true, Overflow
	}

	return false, 0
}

// complete builds the completion report for the current buffer fill.
func (f *feeder) complete(reason Reason) Completion {
	return Completion{Reason: reason, Edges: f.buffer.EdgeCount()}
}
