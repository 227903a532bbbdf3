package rx

// Config is the capture policy of one receive channel.
// The thresholds are read by the capture source, not by the decoder:
// glitch filtering and idle detection happen before an edge reaches the
// buffer.
type Config struct {
	// BufferCapacity is the number of edge slots a buffer allocates.
	BufferCapacity int

	// SignalRangeMin is the shortest pulse in nanoseconds the capture source
	// accepts; shorter pulses are glitches and are dropped.
	SignalRangeMin uint32

	// SignalRangeMax is the longest pulse in nanoseconds; a longer pulse is
	// the idle return and terminates the capture.
	SignalRangeMax uint32

	// SkipSignals is the number of accepted edges discarded at the start of
	// a capture round.
	SkipSignals int

	// StartPolarityLow tells whether the line idles low, which makes the
	// first high edge the start of real transmission.
	StartPolarityLow bool
}
