package provider

import "strings"

// DeepSeekProvider implements Provider for the DeepSeek chat API
type DeepSeekProvider struct{}

func (p *DeepSeekProvider) Name() string {
	return ProviderDeepSeek
}

func (p *DeepSeekProvider) RequiresSecretKey() bool {
	return false
}

func (p *DeepSeekProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *DeepSeekProvider) BaseURL() string {
	return "https://api.deepseek.com"
}

func (p *DeepSeekProvider) Models(c Capability) []string {
	if c == LLM {
		return []string{"deepseek-chat", "deepseek-reasoner"}
	}
	return nil
}

func (p *DeepSeekProvider) DefaultModel(c Capability) string {
	return firstOrEmpty(p.Models(c))
}
