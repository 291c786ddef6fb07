package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Speaker turns assistant messages into audible speech. A new Speak hard
// interrupts the previous utterance, so at most one utterance is audible.
type Speaker struct {
	synth      Synthesizer
	player     Player
	scratchDir string
	maxChunk   int

	mu      sync.Mutex
	cancel  context.CancelFunc
	current uint64

	playMu sync.Mutex // serializes access to the output device
	wg     sync.WaitGroup
}

type SpeakerOption func(*Speaker)

// WithScratchDir sets where synthesized audio is staged before playback.
func WithScratchDir(dir string) SpeakerOption {
	return func(s *Speaker) { s.scratchDir = dir }
}

func WithMaxChunkRunes(n int) SpeakerOption {
	return func(s *Speaker) { s.maxChunk = n }
}

func NewSpeaker(synth Synthesizer, player Player, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		synth:    synth,
		player:   player,
		maxChunk: DefaultMaxChunkRunes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak starts synthesizing and playing text. The returned channel receives
// exactly one result and is then closed: nil once playback completed,
// context.Canceled when superseded or stopped, or the synthesis/playback error.
func (s *Speaker) Speak(ctx context.Context, text string, generation uint64) <-chan error {
	result := make(chan error, 1)
	turnCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		log.Printf("Speaker: utterance #%d superseded by #%d", s.current, generation)
		s.cancel()
	}
	s.cancel = cancel
	s.current = generation
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(result)
		defer s.release(generation, cancel)
		result <- s.run(turnCtx, text, generation)
	}()
	return result
}

// Stop silences the current utterance, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close stops playback and waits for in-flight utterances to return.
func (s *Speaker) Close() {
	s.Stop()
	s.wg.Wait()
}

func (s *Speaker) release(generation uint64, cancel context.CancelFunc) {
	s.mu.Lock()
	if s.current == generation {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()
}

func (s *Speaker) run(ctx context.Context, text string, generation uint64) error {
	start := time.Now()
	for i, chunk := range SplitText(text, s.maxChunk) {
		audio, err := s.synth.Synthesize(ctx, chunk)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		if err := s.play(ctx, audio, generation, i); err != nil {
			return err
		}
	}
	log.Printf("Speaker: utterance #%d finished in %v", generation, time.Since(start))
	return nil
}

func (s *Speaker) play(ctx context.Context, audio []byte, generation uint64, part int) error {
	f, err := os.CreateTemp(s.scratchDir, fmt.Sprintf("tts-%d-%d-*.mp3", generation, part))
	if err != nil {
		return fmt.Errorf("stage audio: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, werr := f.Write(audio)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("stage audio: %w", werr)
	}

	s.playMu.Lock()
	defer s.playMu.Unlock()

	// superseded while waiting for the device
	if err := ctx.Err(); err != nil {
		return err
	}
	err = s.player.Play(ctx, path)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("playback: %w", err)
	}
	return err
}
