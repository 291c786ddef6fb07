package provider

import "strings"

// OpenAIProvider implements Provider for OpenAI services
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) RequiresSecretKey() bool {
	return false
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) BaseURL() string {
	return "https://api.openai.com/v1"
}

func (p *OpenAIProvider) Models(c Capability) []string {
	switch c {
	case Recognition:
		return []string{"whisper-1", "gpt-4o-mini-transcribe", "gpt-4o-transcribe"}
	case Synthesis:
		return []string{"tts-1", "tts-1-hd", "gpt-4o-mini-tts"}
	case LLM:
		return []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1"}
	default:
		return nil
	}
}

func (p *OpenAIProvider) DefaultModel(c Capability) string {
	return firstOrEmpty(p.Models(c))
}
