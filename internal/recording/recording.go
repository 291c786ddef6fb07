package recording

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrDeviceUnavailable is returned when the capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("audio capture device unavailable")

	// ErrCaptureIO is returned when a capture ends without a single frame.
	ErrCaptureIO = errors.New("audio capture produced no frames")
)

type AudioFrame struct {
	Data      []byte
	Timestamp time.Time
}

type Config struct {
	SampleRate        int
	Channels          int
	Format            string
	BufferSize        int
	Device            string
	ChannelBufferSize int
	MaxDuration       time.Duration
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Channels:          1,
		Format:            "s16",
		BufferSize:        8192,
		Device:            "",
		ChannelBufferSize: 30,
		MaxDuration:       2 * time.Minute,
	}
}

// Recorder produces a stream of audio frames until stopped.
// Frames are closed when capture ends; the error channel carries at most one
// mid-capture failure.
type Recorder interface {
	Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error)
	Stop() error
	IsRecording() bool
}

// PipeWireRecorder captures from the default (or configured) PipeWire source
// through a pw-record subprocess.
type PipeWireRecorder struct {
	config    Config
	recording atomic.Bool

	mu     sync.Mutex // guards cmd and cancel
	cmd    *exec.Cmd
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func NewRecorder(config Config) *PipeWireRecorder {
	return &PipeWireRecorder{config: config}
}

func (r *PipeWireRecorder) IsRecording() bool {
	return r.recording.Load()
}

// Start opens the device synchronously so a missing or busy device is
// reported here rather than on the frame stream.
func (r *PipeWireRecorder) Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error) {
	if !r.recording.CompareAndSwap(false, true) {
		return nil, nil, fmt.Errorf("already recording")
	}

	fail := func(err error) (<-chan AudioFrame, <-chan error, error) {
		r.recording.Store(false)
		return nil, nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if err := r.validateConfig(); err != nil {
		r.recording.Store(false)
		return nil, nil, err
	}
	if err := CheckPipeWireAvailable(ctx); err != nil {
		return fail(err)
	}

	recordingCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(recordingCtx, "pw-record", r.buildPwRecordArgs()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fail(fmt.Errorf("create stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fail(fmt.Errorf("create stderr pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fail(fmt.Errorf("start pw-record: %w", err))
	}

	r.mu.Lock()
	r.cmd = cmd
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("Recording stderr: %s", scanner.Text())
		}
	}()

	frameCh := make(chan AudioFrame, r.config.ChannelBufferSize)
	errCh := make(chan error, 1)

	r.wg.Add(1)
	go r.captureLoop(recordingCtx, stdout, frameCh, errCh)

	return frameCh, errCh, nil
}

func (r *PipeWireRecorder) Stop() error {
	if !r.recording.Load() {
		return nil
	}

	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (r *PipeWireRecorder) Wait() {
	r.wg.Wait()
}

func (r *PipeWireRecorder) captureLoop(ctx context.Context, stdout io.Reader, frameCh chan<- AudioFrame, errCh chan<- error) {
	defer func() {
		close(frameCh)
		close(errCh)
		r.recording.Store(false)

		r.mu.Lock()
		if r.cmd != nil {
			_ = r.cmd.Wait()
			r.cmd = nil
		}
		r.cancel = nil
		r.mu.Unlock()

		r.wg.Done()
	}()

	buffer := make([]byte, r.config.BufferSize)
	var sent int

	for {
		n, readErr := stdout.Read(buffer)
		if n > 0 {
			frameData := make([]byte, n)
			copy(frameData, buffer[:n])

			// Frames are never dropped: every byte belongs to the utterance.
			select {
			case frameCh <- AudioFrame{Data: frameData, Timestamp: time.Now()}:
				sent++
			case <-ctx.Done():
				return
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || ctx.Err() != nil {
				log.Printf("Recording: capture ended after %d frames", sent)
				return
			}
			r.emitErr(errCh, fmt.Errorf("read audio: %w", readErr))
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (r *PipeWireRecorder) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
	log.Printf("Recording error: %v", err)
}

func (r *PipeWireRecorder) buildPwRecordArgs() []string {
	args := []string{
		"--format", r.config.Format,
		"--rate", strconv.Itoa(r.config.SampleRate),
		"--channels", strconv.Itoa(r.config.Channels),
	}
	if r.config.Device != "" {
		args = append(args, "--target", r.config.Device)
	}
	return append(args, "-")
}

func NewDefaultRecorder() *PipeWireRecorder { return NewRecorder(DefaultConfig()) }

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}

func (r *PipeWireRecorder) validateConfig() error {
	return r.config.Validate()
}

// Validate checks the capture parameters.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", c.Channels)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid BufferSize: %d", c.BufferSize)
	}
	if c.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid ChannelBufferSize: %d", c.ChannelBufferSize)
	}
	if c.Format == "" {
		return fmt.Errorf("invalid Format: empty")
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("invalid MaxDuration: %v", c.MaxDuration)
	}
	if c.Format == "s16" {
		frameBytes := 2 * c.Channels
		if c.BufferSize%frameBytes != 0 {
			log.Printf("Recording: BufferSize %d not aligned to frame size %d; audio frames may split",
				c.BufferSize, frameBytes)
		}
	}
	return nil
}
