package speech

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// Player plays an MP3 file to completion or until ctx is cancelled.
type Player interface {
	Play(ctx context.Context, path string) error
}

// PipeWirePlayer decodes MP3 in-process and streams the PCM to pw-play.
type PipeWirePlayer struct {
	Device string
}

func NewPipeWirePlayer(device string) *PipeWirePlayer {
	return &PipeWirePlayer{Device: device}
}

func (p *PipeWirePlayer) Play(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	// go-mp3 always decodes to 16-bit little-endian stereo.
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return fmt.Errorf("%w: decode mp3: %v", ErrSynthesisFailed, err)
	}

	cmd := exec.CommandContext(ctx, "pw-play", p.buildArgs(dec.SampleRate())...)
	cmd.Stdin = dec

	start := time.Now()
	err = cmd.Run()
	if ctx.Err() != nil {
		log.Printf("Player: interrupted after %v", time.Since(start))
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("pw-play: %w", err)
	}
	log.Printf("Player: played %s in %v", path, time.Since(start))
	return nil
}

func (p *PipeWirePlayer) buildArgs(sampleRate int) []string {
	args := []string{
		"--format", "s16",
		"--rate", strconv.Itoa(sampleRate),
		"--channels", "2",
	}
	if p.Device != "" {
		args = append(args, "--target", p.Device)
	}
	return append(args, "-")
}
