package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/leonardotrapani/medintake/internal/provider"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyRecord is returned when the model answers with no content.
var ErrEmptyRecord = errors.New("model returned an empty record")

// Config holds record generator configuration
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// DefaultConfig returns the DeepSeek settings used for intake records
func DefaultConfig() Config {
	return Config{
		Provider:    provider.ProviderDeepSeek,
		Model:       "deepseek-chat",
		Temperature: 0.2,
		MaxTokens:   4000,
	}
}

// Generator turns an intake transcript into a structured medical record
// through an OpenAI-compatible chat completions endpoint.
type Generator struct {
	client *openai.Client
	config Config
}

// New creates a Generator. BaseURL and Model fall back to the provider's
// registry defaults.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required", cfg.Provider)
	}

	p := provider.GetProvider(cfg.Provider)
	if p == nil && cfg.BaseURL == "" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if p != nil && !provider.Supports(p, provider.LLM) {
		return nil, fmt.Errorf("provider %s does not offer chat completions", cfg.Provider)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL()
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel(provider.LLM)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Generate requests a record for the transcript in req.
func (g *Generator) Generate(ctx context.Context, req conversation.RecordRequest) (string, error) {
	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       g.config.Model,
		Messages:    BuildMessages(systemPrompt, req.Turns),
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	}

	log.Printf("%s-llm: generating record %d from %d turns with %s", g.config.Provider, req.Generation, len(req.Turns), g.config.Model)

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		log.Printf("%s-llm: API call failed after %v: %v", g.config.Provider, duration, err)
		return "", fmt.Errorf("%s chat completion: %w", g.config.Provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat completion: no response choices", g.config.Provider)
	}

	record := strings.TrimSpace(resp.Choices[0].Message.Content)
	if record == "" {
		return "", ErrEmptyRecord
	}

	log.Printf("%s-llm: record %d ready in %v (%d tokens)", g.config.Provider, req.Generation, duration, resp.Usage.TotalTokens)
	return record, nil
}

// Model returns the model the generator talks to.
func (g *Generator) Model() string {
	return g.config.Model
}
