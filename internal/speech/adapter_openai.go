package speech

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAISynthesizer implements Synthesizer over the OpenAI speech endpoint.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel

	mu     sync.RWMutex
	params Params
}

func NewOpenAISynthesizer(config Config) *OpenAISynthesizer {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.URL != "" {
		clientConfig.BaseURL = config.URL
	}
	model := openai.SpeechModel(config.Model)
	if model == "" {
		model = openai.TTSModel1
	}
	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		params: config.Params,
	}
}

func (s *OpenAISynthesizer) SetParams(p Params) {
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
}

// speed maps the 0-15 Baidu-style scale (5 is normal) onto 0.25-4.0.
func speed(level int) float64 {
	if level <= 0 {
		return 0.25
	}
	v := float64(level) / 5
	if v < 0.25 {
		v = 0.25
	}
	if v > 4 {
		v = 4
	}
	return v
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.RLock()
	p := s.params
	s.mu.RUnlock()

	voice := openai.SpeechVoice(p.Voice)
	if voice == "" {
		voice = openai.VoiceAlloy
	}

	start := time.Now()
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed(p.Speed),
	})
	if err != nil {
		log.Printf("openai-tts: API call failed after %v: %v", time.Since(start), err)
		return nil, fmt.Errorf("%w: openai speech: %v", ErrSynthesisFailed, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %v", ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	log.Printf("openai-tts: synthesized %d runes into %d bytes in %v", len([]rune(text)), len(audio), time.Since(start))
	return audio, nil
}
