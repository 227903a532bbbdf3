package rx

import (
	"errors"

	"ledrx/pkg/edge"
	"ledrx/pkg/timing"
)

var (
	// ErrNoEdges reports a decode call without any captured edges.
	// There is nothing to align to; the caller must capture again.
	ErrNoEdges = errors.New("no edges to decode")

	// ErrBufferOverflow reports that the decoded bytes would not fit into
	// the caller's output buffer. The edges are untouched; the caller can
	// retry with a larger buffer.
	ErrBufferOverflow = errors.New("output buffer too small")

	// ErrHighErrorRate reports that strict decoding saw too many pulse
	// pairs that match neither bit window.
	ErrHighErrorRate = errors.New("pulse mismatch rate above limit")
)

// DefaultMaxErrorRate is the mismatch ratio DecodeStrict tolerates before
// it fails the frame.
const DefaultMaxErrorRate = 0.1

// Decode classifies captured edges into bytes using the decode windows of
// profile and writes them to out. It returns the number of bytes decoded.
//
// Leading edges of the idle polarity are discarded before decoding: a
// physical receive channel commonly captures the idle line state before the
// transmitter starts. From the first transmission edge on, edges are consumed
// pairwise as (high pulse, low pulse) and classified against the bit0 and
// bit1 windows; bits accumulate MSB first into bytes. The first pair that
// matches neither window ends the valid data, bytes assembled so far are
// kept.
//
// A return of 0 with a nil error is a valid outcome (aligned capture with no
// decodable pair), distinct from ErrNoEdges for an empty capture.
//
// Decode is stateless and does not mutate edges: identical inputs yield
// identical results.
func Decode(edges []edge.Edge, profile *timing.Profile, startPolarityLow bool, out []byte) (int, error) {
	return decode(edges, profile, startPolarityLow, out, -1)
}

// DecodeStrict decodes like Decode but counts pulse pairs that match neither
// bit window instead of stopping at the first one. Mismatched pairs decode no
// bit; when their share of all classified pairs exceeds maxErrorRate the call
// fails with ErrHighErrorRate. A low pulse at least as long as the reset
// threshold still ends the frame cleanly and is not counted.
//
// Pass DefaultMaxErrorRate unless the channel quality calls for another
// limit.
func DecodeStrict(edges []edge.Edge, profile *timing.Profile, startPolarityLow bool, out []byte, maxErrorRate float64) (int, error) {
	if maxErrorRate < 0 {
		maxErrorRate = 0
	}
	return decode(edges, profile, startPolarityLow, out, maxErrorRate)
}

// decode is the shared decoder. A negative maxErrorRate selects the default
// policy of stopping at the first mismatched pair.
func decode(edges []edge.Edge, profile *timing.Profile, startPolarityLow bool, out []byte, maxErrorRate float64) (int, error) {
	if len(edges) == 0 {
		return 0, ErrNoEdges
	}

	start := align(edges, startPolarityLow)
	if start < 0 {
		// only idle polarity edges were captured
		return 0, nil
	}

	strict := maxErrorRate >= 0
	resetNs := uint64(profile.ResetMinUs) * 1000

	var (
		n          int
		register   byte
		bits       int
		pairs      int
		mismatches int
	)

scan:
	for i := start; i+1 < len(edges); i += 2 {
		high := edges[i].Ns
		low := edges[i+1].Ns

		if profile.GapTolerance > 0 && uint64(low) > resetNs && low < profile.GapTolerance {
			// tolerated inter frame gap, no bit encoded
			continue
		}

		var bit byte
		switch {
		case within(high, profile.Bit0HighMin, profile.Bit0HighMax) &&
			within(low, profile.Bit0LowMin, profile.Bit0LowMax):
			bit = 0
		case within(high, profile.Bit1HighMin, profile.Bit1HighMax) &&
			within(low, profile.Bit1LowMin, profile.Bit1LowMax):
			bit = 1
		default:
			if !strict {
				// end of valid data
				break scan
			}
			if uint64(low) >= resetNs && resetNs > 0 {
				// frame terminator, a clean end in strict mode too
				break scan
			}
			pairs++
			mismatches++
			continue
		}

		pairs++
		register = register<<1 | bit
		if bits++; bits == 8 {
			if n == len(out) {
				return 0, ErrBufferOverflow
			}
			out[n] = register
			n++
			register, bits = 0, 0
		}
	}

	if strict && pairs > 0 && float64(mismatches) > maxErrorRate*float64(pairs) {
		return 0, ErrHighErrorRate
	}

	return n, nil
}

// align returns the index of the first edge that starts real transmission,
// or -1 if the capture holds only idle polarity edges. On a line idling low
// the transmission starts with the first high edge, and the other way round.
func align(edges []edge.Edge, startPolarityLow bool) int {
	for i, e := range edges {
		if e.High == startPolarityLow {
			return i
		}
	}
	return -1
}

func within(v, min, max uint32) bool {
	return v >= min && v <= max
}
