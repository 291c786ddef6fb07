package provider

import "strings"

// GroqProvider implements Provider for Groq services
type GroqProvider struct{}

func (p *GroqProvider) Name() string {
	return ProviderGroq
}

func (p *GroqProvider) RequiresSecretKey() bool {
	return false
}

func (p *GroqProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "gsk_")
}

func (p *GroqProvider) BaseURL() string {
	return "https://api.groq.com/openai/v1"
}

func (p *GroqProvider) Models(c Capability) []string {
	switch c {
	case Recognition:
		return []string{"whisper-large-v3-turbo", "whisper-large-v3"}
	case LLM:
		return []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
	default:
		return nil
	}
}

func (p *GroqProvider) DefaultModel(c Capability) string {
	return firstOrEmpty(p.Models(c))
}
