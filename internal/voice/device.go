package voice

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrDeviceBusy     = errors.New("audio device already in use")
	ErrNoActiveStream = errors.New("no active recording")
)

const streamBuffer = 64

// StreamDevice is a Device fed by chunks pushed from outside the process,
// for example audio uploaded by a browser while it records.
type StreamDevice struct {
	mu      sync.Mutex
	current *streamInput
}

func NewStreamDevice() *StreamDevice {
	return &StreamDevice{}
}

func (d *StreamDevice) Open(ctx context.Context) (Input, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		return nil, ErrDeviceBusy
	}

	d.current = &streamInput{device: d, chunks: make(chan []byte, streamBuffer)}
	return d.current, nil
}

// Push hands a chunk of audio to the open input.
func (d *StreamDevice) Push(chunk []byte) error {
	d.mu.Lock()
	input := d.current
	d.mu.Unlock()

	if input == nil {
		return ErrNoActiveStream
	}
	return input.push(chunk)
}

func (d *StreamDevice) release(input *streamInput) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == input {
		d.current = nil
	}
}

type streamInput struct {
	device *StreamDevice

	mu     sync.Mutex
	chunks chan []byte
	closed bool
}

func (s *streamInput) push(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNoActiveStream
	}
	s.chunks <- append([]byte(nil), chunk...)
	return nil
}

func (s *streamInput) Chunks() <-chan []byte {
	return s.chunks
}

func (s *streamInput) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.chunks)
	}
	s.mu.Unlock()

	s.device.release(s)
	return nil
}
