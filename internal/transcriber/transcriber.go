package transcriber

import (
	"context"
	"fmt"

	"github.com/leonardotrapani/medintake/internal/baidu"
)

// BatchAdapter recognizes one finalized utterance of raw 16-bit PCM.
type BatchAdapter interface {
	Transcribe(ctx context.Context, audioData []byte) (string, error)
}

// Config for the speech recognizer.
type Config struct {
	Provider   string
	APIKey     string
	SecretKey  string
	Language   string
	Model      string
	DevPID     int
	CUID       string
	URL        string
	SampleRate int
	Channels   int

	// Tokens is shared with the synthesizer when both use Baidu.
	Tokens *baidu.TokenSource
}

func DefaultConfig() Config {
	return Config{
		Provider:   "baidu",
		Language:   "zh",
		DevPID:     80001,
		SampleRate: 16000,
		Channels:   1,
	}
}

// New creates the recognizer adapter for config.Provider.
func New(config Config) (BatchAdapter, error) {
	switch config.Provider {
	case "baidu":
		if config.Tokens == nil && (config.APIKey == "" || config.SecretKey == "") {
			return nil, fmt.Errorf("Baidu API key and secret key required")
		}
		return NewBaiduAdapter(config), nil
	case "openai":
		if config.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAIAdapter(config), nil
	case "groq":
		if config.APIKey == "" {
			return nil, fmt.Errorf("Groq API key required")
		}
		return NewGroqAdapter(config), nil
	default:
		return nil, fmt.Errorf("unsupported recognition provider: %s", config.Provider)
	}
}

func withAudioDefaults(config Config) Config {
	if config.SampleRate <= 0 {
		config.SampleRate = 16000
	}
	if config.Channels <= 0 {
		config.Channels = 1
	}
	return config
}

// alignPCM drops a trailing partial sample frame left by a truncated capture.
func alignPCM(pcm []byte, channels int) []byte {
	frame := 2 * channels
	return pcm[:len(pcm)-len(pcm)%frame]
}
