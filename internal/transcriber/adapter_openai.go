package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/leonardotrapani/medintake/internal/audio"
)

// OpenAIAdapter implements BatchAdapter for Whisper-compatible endpoints.
type OpenAIAdapter struct {
	client *openai.Client
	config Config
	name   string
}

func NewOpenAIAdapter(config Config) *OpenAIAdapter {
	config = withAudioDefaults(config)
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.URL != "" {
		clientConfig.BaseURL = config.URL
	}
	if config.Model == "" {
		config.Model = openai.Whisper1
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "openai",
	}
}

// NewGroqAdapter uses Groq's OpenAI-compatible Whisper endpoint.
func NewGroqAdapter(config Config) *OpenAIAdapter {
	if config.URL == "" {
		config.URL = "https://api.groq.com/openai/v1"
	}
	if config.Model == "" {
		config.Model = "whisper-large-v3"
	}
	a := NewOpenAIAdapter(config)
	a.name = "groq"
	return a
}

func (a *OpenAIAdapter) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	audioData = alignPCM(audioData, a.config.Channels)
	if len(audioData) == 0 {
		return "", nil
	}

	wavData, err := audio.EncodeWAV(audioData, a.config.SampleRate, a.config.Channels)
	if err != nil {
		return "", fmt.Errorf("convert to WAV: %w", err)
	}

	req := openai.AudioRequest{
		Model:    a.config.Model,
		Reader:   bytes.NewReader(wavData),
		FilePath: "audio.wav",
		Language: a.config.Language,
	}

	start := time.Now()
	resp, err := a.client.CreateTranscription(ctx, req)
	duration := time.Since(start)

	if err != nil {
		log.Printf("%s-asr: API call failed after %v: %v", a.name, duration, err)
		return "", fmt.Errorf("%w: %s transcription: %v", ErrRecognitionFailed, a.name, err)
	}

	log.Printf("%s-asr: transcribed %d bytes in %v: %q", a.name, len(audioData), duration, resp.Text)
	return resp.Text, nil
}
