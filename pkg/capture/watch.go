//go:build linux
// +build linux

package capture

import (
	"sync"
	"time"

	"github.com/warthog618/gpio"

	"ledrx/pkg/edge"
	"ledrx/pkg/rx"
)

// Watch is the memory mapped capture source: both edge watches on a gpio pin
// with user space timestamps. It is the fallback for platforms where the
// character device is not available; timing is less precise than Lines.
type Watch struct {
	pin *gpio.Pin

	feeder *feeder
	done   chan Completion

	mu    sync.Mutex
	armed bool
	last  time.Time
}

// NewWatch maps the GPIO memory and watches the pin for both edges.
// pull selects the pin bias: "pullup", "pulldown" or "none".
func NewWatch(buffer *rx.Buffer, config rx.Config, pin int, pull string) (*Watch, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}

	s := &Watch{
		pin:    gpio.NewPin(pin),
		feeder: newFeeder(buffer, config),
		done:   make(chan Completion, 1),
	}

	s.pin.Input()
	switch pull {
	case "pullup":
		s.pin.PullUp()
	case "pulldown":
		s.pin.PullDown()
	case "none", "":
	default:
		_ = gpio.Close()
		return nil, ErrInvalidPull
	}

	if err := s.pin.Watch(gpio.EdgeBoth, s.handler); err != nil {
		_ = gpio.Close()
		return nil, err
	}

	return s, nil
}

// Start arms one capture round.
func (s *Watch) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feeder.rearm()
	s.last = time.Time{}
	s.armed = true
	return nil
}

// Done returns the completion channel.
func (s *Watch) Done() <-chan Completion {
	return s.done
}

// handler timestamps the edge in user space and closes the interval since
// the previous edge. The pin now reads the new level, so the interval held
// the opposite one.
func (s *Watch) handler(p *gpio.Pin) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed {
		return
	}

	if s.last.IsZero() {
		s.last = now
		return
	}

	e := edge.New(bool(!p.Read()), now.Sub(s.last).Nanoseconds())
	s.last = now

	if done, reason := s.feeder.offer(e.High, e.Ns); done {
		s.armed = false
		s.done <- s.feeder.complete(reason)
	}
}

// Close removes the watch and unmaps the GPIO memory.
func (s *Watch) Close() error {
	s.mu.Lock()
	s.armed = false
	s.mu.Unlock()

	s.pin.Unwatch()
	return gpio.Close()
}
