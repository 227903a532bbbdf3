// Package timing derives decode thresholds from the nominal transmit timing
// of clockless (ws281x style) LED chipsets.
//
// A chipset transmits one bit as a high pulse followed by a low pulse. The
// nominal timing is given as three phases t1/t2/t3: a 0 bit is high for t1
// and low for t2+t3, a 1 bit is high for t1+t2 and low for t3. Receiving is
// done against tolerance widened windows around these four nominal values.
package timing

// DefaultTolerance is the default window widening in nanoseconds.
const DefaultTolerance uint32 = 150

// ChipsetTiming is the nominal 3 phase transmit timing of a chipset.
type ChipsetTiming struct {
	// Name of the chipset, for diagnostics only.
	Name string
	// T1, T2, T3 are the bit encoding phases in nanoseconds.
	T1 uint32
	T2 uint32
	T3 uint32
	// ResetUs is the minimum idle pulse in microseconds that separates frames.
	ResetUs uint32
}

// Profile holds the four decode windows of a chipset plus the frame boundary
// thresholds. A Profile is built once per chipset and passed unchanged into
// every decode call.
type Profile struct {
	Bit0HighMin uint32
	Bit0HighMax uint32
	Bit0LowMin  uint32
	Bit0LowMax  uint32

	Bit1HighMin uint32
	Bit1HighMax uint32
	Bit1LowMin  uint32
	Bit1LowMax  uint32

	// ResetMinUs is the low pulse length (microseconds) above which a frame ends.
	// It is a "longer than" threshold and is not tolerance widened.
	ResetMinUs uint32

	// GapTolerance is an optional secondary bound in nanoseconds. When non
	// zero, low pulses longer than ResetMinUs but shorter than GapTolerance
	// are transmission gaps, not frame terminators.
	GapTolerance uint32
}

// NewProfile derives the decode windows from a nominal chipset timing.
// Each of the four nominal pulse lengths is widened by toleranceNs on both
// sides; the lower bound clamps at 0 instead of underflowing.
// NewProfile is a pure function: identical inputs yield identical profiles.
func NewProfile(t ChipsetTiming, toleranceNs uint32) Profile {
	bit0High := t.T1
	bit0Low := t.T2 + t.T3
	bit1High := t.T1 + t.T2
	bit1Low := t.T3

	return Profile{
		Bit0HighMin: lower(bit0High, toleranceNs),
		Bit0HighMax: bit0High + toleranceNs,
		Bit0LowMin:  lower(bit0Low, toleranceNs),
		Bit0LowMax:  bit0Low + toleranceNs,

		Bit1HighMin: lower(bit1High, toleranceNs),
		Bit1HighMax: bit1High + toleranceNs,
		Bit1LowMin:  lower(bit1Low, toleranceNs),
		Bit1LowMax:  bit1Low + toleranceNs,

		ResetMinUs: t.ResetUs,
	}
}

func lower(v, tolerance uint32) uint32 {
	if v > tolerance {
		return v - tolerance
	}
	return 0
}
