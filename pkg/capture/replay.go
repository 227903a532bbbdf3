package capture

import (
	"ledrx/pkg/edge"
	"ledrx/pkg/rx"
	"ledrx/pkg/trace"
)

// Replay feeds a recorded trace through the capture policy, so recorded
// signals run through the exact live receive path.
type Replay struct {
	feeder *feeder
	edges  []edge.Edge
	// pos is the replay position; a round continues where the previous one
	// stopped, so multi frame traces replay frame by frame.
	pos  int
	done chan Completion
}

// NewReplay creates a replay source for the edges of t.
func NewReplay(buffer *rx.Buffer, config rx.Config, t *trace.Trace) *Replay {
	return &Replay{
		feeder: newFeeder(buffer, config),
		edges:  t.Edges,
		done:   make(chan Completion, 1),
	}
}

// Start feeds the trace into the buffer. The capture completes when a
// terminating pulse is replayed, the buffer overflows or the trace is
// exhausted (EOF).
func (s *Replay) Start() error {
	s.feeder.rearm()

	go func() {
		for s.pos < len(s.edges) {
			e := s.edges[s.pos]
			s.pos++

			if done, reason := s.feeder.offer(e.High, e.Ns); done {
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
func (s *Replay) Done() <-chan Completion {
	return s.done
}

// Close releases the source. Replay holds no resources.
func (s *Replay) Close() error {
	return nil
}
