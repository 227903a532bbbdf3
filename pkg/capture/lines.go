//go:build linux
// +build linux

package capture

import (
	"sync"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"

	"ledrx/pkg/edge"
	"ledrx/pkg/rx"
)

// Lines is the interrupt driven capture source: kernel timestamped both edge
// events from a gpiod character device line.
type Lines struct {
	chip *gpiod.Chip
	line *gpiod.Line

	feeder *feeder
	done   chan Completion

	// mu serializes the event handler against Start/Close.
	mu    sync.Mutex
	armed bool
	// last is the kernel timestamp of the previous event; 0 means no event
	// has been seen in this round yet.
	last time.Duration
}

// NewLines opens gpiochip0 and requests the line with both edge events.
// pull selects the line bias: "pullup", "pulldown" or "none".
func NewLines(buffer *rx.Buffer, config rx.Config, gpio int, pull string) (*Lines, error) {
	chip, err := gpiod.NewChip("gpiochip0")
	if err != nil {
		return nil, err
	}

	s := &Lines{
		chip:   chip,
		feeder: newFeeder(buffer, config),
		done:   make(chan Completion, 1),
	}

	switch pull {
	case "pullup":
		s.line, err = chip.RequestLine(gpio, gpiod.WithEventHandler(s.handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullUp)
	case "pulldown":
		s.line, err = chip.RequestLine(gpio, gpiod.WithEventHandler(s.handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullDown)
	case "none", "":
		s.line, err = chip.RequestLine(gpio, gpiod.WithEventHandler(s.handler),
			gpiod.WithBothEdges, gpiod.AsInput)
	default:
		err = ErrInvalidPull
	}

	if err != nil {
		_ = chip.Close()
		return nil, err
	}

	return s, nil
}

// Start arms one capture round.
func (s *Lines) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feeder.rearm()
	s.last = 0
	s.armed = true
	return nil
}

// Done returns the completion channel.
func (s *Lines) Done() <-chan Completion {
	return s.done
}

// handler converts line events to edges: the interval since the previous
// event, with the level the line held during that interval. The level is the
// one the event leaves, so a falling edge closes a high interval.
func (s *Lines) handler(evt gpiod.LineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed {
		return
	}

	if s.last == 0 {
		// first event of the round, no interval yet
		s.last = evt.Timestamp
		return
	}

	e := edge.New(evt.Type == gpiod.LineEventFallingEdge, int64(evt.Timestamp-s.last))
	s.last = evt.Timestamp

	if done, reason := s.feeder.offer(e.High, e.Ns); done {
		s.armed = false
		s.done <- s.feeder.complete(reason)
	}
}

// Close releases the line and the chip.
//
// Close must not be called from the event handler context, gpiod waits for
// running handlers to return.
func (s *Lines) Close() error {
	s.mu.Lock()
	s.armed = false
	s.mu.Unlock()

	if err := s.line.Close(); err != nil {
		debug.ErrorLog.Printf("closing line: %v", err)
	}
	return s.chip.Close()
}
