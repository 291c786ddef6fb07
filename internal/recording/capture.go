package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Service hands out one Capture per utterance. The microphone is owned by at
// most one Capture at a time.
type Service struct {
	config      Config
	newRecorder func(Config) Recorder

	mu     sync.Mutex
	active *Capture
}

type ServiceOption func(*Service)

// WithRecorderFactory replaces the PipeWire recorder, mainly for tests.
func WithRecorderFactory(f func(Config) Recorder) ServiceOption {
	return func(s *Service) { s.newRecorder = f }
}

func NewService(config Config, opts ...ServiceOption) *Service {
	s := &Service{
		config:      config,
		newRecorder: func(c Config) Recorder { return NewRecorder(c) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture opens the device and starts buffering. It fails fast with
// ErrDeviceUnavailable when the device cannot be opened.
func (s *Service) Capture(ctx context.Context) (*Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && !s.active.finished() {
		return nil, fmt.Errorf("%w: device busy", ErrDeviceUnavailable)
	}

	rec := s.newRecorder(s.config)
	frameCh, errCh, err := rec.Start(ctx)
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return nil, err
	}

	c := &Capture{
		recorder: rec,
		done:     make(chan struct{}),
		started:  time.Now(),
	}
	if s.config.MaxDuration > 0 {
		c.mu.Lock()
		c.timer = time.AfterFunc(s.config.MaxDuration, func() {
			log.Printf("Recording: max duration %v reached", s.config.MaxDuration)
			c.Stop()
		})
		c.mu.Unlock()
	}
	go c.collect(frameCh, errCh)

	s.active = c
	return c, nil
}

// Capture is one microphone capture. Frames are appended to an in-memory
// buffer until Stop; Wait returns the finalized buffer.
type Capture struct {
	recorder Recorder
	started  time.Time

	mu    sync.Mutex // guards timer
	timer *time.Timer

	stopOnce sync.Once
	done     chan struct{}

	buf    bytes.Buffer
	frames int
	err    error
}

// Stop finalizes the capture. Calling it again is a no-op.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		c.stopTimer()
		if err := c.recorder.Stop(); err != nil {
			log.Printf("Recording: stop failed: %v", err)
		}
	})
}

// Wait blocks until the frame stream is drained. A mid-capture read error
// truncates the buffer; the bytes read so far are still returned alongside
// the error. Zero frames yields ErrCaptureIO.
func (c *Capture) Wait() ([]byte, error) {
	<-c.done
	if c.frames == 0 {
		if c.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCaptureIO, c.err)
		}
		return nil, ErrCaptureIO
	}
	return c.buf.Bytes(), c.err
}

func (c *Capture) finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Capture) stopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Capture) collect(frameCh <-chan AudioFrame, errCh <-chan error) {
	defer close(c.done)

	for frameCh != nil || errCh != nil {
		select {
		case frame, ok := <-frameCh:
			if !ok {
				frameCh = nil
				continue
			}
			c.buf.Write(frame.Data)
			c.frames++
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if c.err == nil {
				c.err = err
			}
		}
	}

	c.stopTimer()
	log.Printf("Recording: captured %d frames (%d bytes) in %v", c.frames, c.buf.Len(), time.Since(c.started))
}
