//go:build !linux
// +build !linux

package capture

import (
	"ledrx/pkg/rx"
)

// Lines is not available without the linux GPIO character device.
// Use the synth or replay source instead.
type Lines struct{}

func NewLines(buffer *rx.Buffer, config rx.Config, gpio int, pull string) (*Lines, error) {
	return nil, ErrUnsupported
}

func (s *Lines) Start() error            { return ErrUnsupported }
func (s *Lines) Done() <-chan Completion { return nil }
func (s *Lines) Close() error            { return nil }

// Watch is not available without the linux GPIO memory map.
type Watch struct{}

func NewWatch(buffer *rx.Buffer, config rx.Config, pin int, pull string) (*Watch, error) {
	return nil, ErrUnsupported
}

func (s *Watch) Start() error            { return ErrUnsupported }
func (s *Watch) Done() <-chan Completion { return nil }
func (s *Watch) Close() error            { return nil }
