package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonardotrapani/medintake/internal/baidu"
)

var (
	// ErrSynthesisFailed wraps every remote failure of a synthesizer.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrEmptyAudio is returned when the service answered without audio.
	ErrEmptyAudio = fmt.Errorf("%w: empty audio payload", ErrSynthesisFailed)
)

// SynthesisError is a structured error payload returned instead of audio.
type SynthesisError struct {
	Code    int
	Message string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis error %d: %s", e.Code, e.Message)
}

func (e *SynthesisError) Unwrap() error {
	return ErrSynthesisFailed
}

// Synthesizer converts text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Params are the voice parameters applied to every utterance. They may be
// changed between utterances.
type Params struct {
	Language string
	Speed    int
	Pitch    int
	Volume   int
	Person   int
	Voice    string // openai voice name
}

func DefaultParams() Params {
	return Params{
		Language: "zh",
		Speed:    5,
		Pitch:    5,
		Volume:   7,
		Person:   1,
		Voice:    "alloy",
	}
}

type Config struct {
	Provider  string
	APIKey    string
	SecretKey string
	CUID      string
	URL       string
	Model     string
	Timeout   time.Duration
	Params    Params

	Tokens *baidu.TokenSource
}

// ParamSetter is implemented by synthesizers that support hot reload.
type ParamSetter interface {
	SetParams(Params)
}

// New creates the synthesizer for config.Provider.
func New(config Config) (Synthesizer, error) {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	switch config.Provider {
	case "baidu":
		if config.Tokens == nil && (config.APIKey == "" || config.SecretKey == "") {
			return nil, fmt.Errorf("Baidu API key and secret key required")
		}
		return NewBaiduSynthesizer(config), nil
	case "openai":
		if config.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAISynthesizer(config), nil
	default:
		return nil, fmt.Errorf("unsupported speech provider: %s", config.Provider)
	}
}
