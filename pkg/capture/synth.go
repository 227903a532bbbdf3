package capture

import (
	"math/rand"
	"time"

	"ledrx/pkg/edge"
	"ledrx/pkg/rx"
	"ledrx/pkg/timing"
)

// Encode renders data as nominal pulse pairs for the given chipset timing:
// a 1 bit as high t1+t2 / low t3, a 0 bit as high t1 / low t2+t3, bits MSB
// first. It is the transmit side reference the receive path is tested
// against.
func Encode(t timing.ChipsetTiming, data []byte) []edge.Edge {
	edges := make([]edge.Edge, 0, len(data)*16)

	for _, b := range data {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				edges = append(edges,
					edge.Edge{High: true, Ns: t.T1 + t.T2},
					edge.Edge{High: false, Ns: t.T3})
			} else {
				edges = append(edges,
					edge.Edge{High: true, Ns: t.T1},
					edge.Edge{High: false, Ns: t.T2 + t.T3})
			}
		}
	}

	return edges
}

// SynthConfig describes the frames a Synth source generates.
type SynthConfig struct {
	// Timing is the nominal chipset timing to transmit with.
	Timing timing.ChipsetTiming
	// Data is the byte payload of every frame.
	Data []byte
	// JitterNs widens or narrows each pulse by a random amount up to this
	// bound, to exercise the decode windows.
	JitterNs uint32
	// Seed makes the jitter reproducible.
	Seed int64
	// Interval is the pause before a frame is generated.
	Interval time.Duration
}

// Synth generates frames from configured bytes and nominal chipset timing.
// It is the hardware free capture source used on platforms without GPIO and
// in tests.
type Synth struct {
	feeder *feeder
	config SynthConfig
	rnd    *rand.Rand
	done   chan Completion
}

// NewSynth creates a synthetic capture source.
func NewSynth(buffer *rx.Buffer, config rx.Config, synth SynthConfig) *Synth {
	return &Synth{
		feeder: newFeeder(buffer, config),
		config: synth,
		rnd:    rand.New(rand.NewSource(synth.Seed)),
		done:   make(chan Completion, 1),
	}
}

// Start generates one frame followed by an idle pulse and feeds it through
// the capture policy.
func (s *Synth) Start() error {
	s.feeder.rearm()

	go func() {
		if s.config.Interval > 0 {
			time.Sleep(s.config.Interval)
		}

		for _, e := range Encode(s.config.Timing, s.config.Data) {
			if done, reason := s.feeder.offer(e.High, s.jitter(e.Ns)); done {
				s.done <- s.feeder.complete(reason)
				return
			}
		}

		// idle return after the frame
		if max := s.feeder.config.SignalRangeMax; max > 0 {
			idle := edge.New(false, int64(max)+int64(max)/2)
			if done, reason := s.feeder.offer(idle.High, idle.Ns); done {
				s.done <- s.feeder.complete(reason)
				return
			}
		}

		s.feeder.buffer.Finish()
		s.done <- s.feeder.complete(EOF)
	}()

	return nil
}

// Done returns the completion channel.
func (s *Synth) Done() <-chan Completion {
	return s.done
}

// Close releases the source. Synth holds no resources.
func (s *Synth) Close() error {
	return nil
}

// jitter distorts a nominal pulse length by up to ±JitterNs.
func (s *Synth) jitter(ns uint32) uint32 {
	j := s.config.JitterNs
	if j == 0 {
		return ns
	}

	d := s.rnd.Int63n(int64(j)*2+1) - int64(j)
	return edge.New(false, int64(ns)+d).Ns
}
