// Package edge holds the value type of one observed line transition
package edge

import "time"

// MaxDuration is the longest representable pulse duration in nanoseconds.
// Durations stay within 31 bits so they survive conversion to and from signed
// timestamp arithmetic without wrapping.
const MaxDuration uint32 = 1<<31 - 1

// Edge is one observed interval on the signal line: the level the line held
// and for how long. An Edge is immutable once created.
type Edge struct {
	// High is the line level during the interval.
	High bool
	// Ns is the length of the interval in nanoseconds.
	Ns uint32
}

// New creates an Edge from a signed nanosecond interval.
// Negative intervals clamp to 0 and intervals beyond MaxDuration saturate,
// they are never wrapped.
func New(high bool, ns int64) Edge {
	switch {
	case ns < 0:
		ns = 0
	case ns > int64(MaxDuration):
		ns = int64(MaxDuration)
	}

	return Edge{High: high, Ns: uint32(ns)}
}

// Clamp saturates a nanosecond duration to MaxDuration.
func Clamp(ns uint32) uint32 {
	if ns > MaxDuration {
		return MaxDuration
	}
	return ns
}

// Duration returns the interval length as a time.Duration.
func (e Edge) Duration() time.Duration {
	return time.Duration(e.Ns) * time.Nanosecond
}
