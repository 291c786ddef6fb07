package provider

// Provider name constants for config and registry
const (
	ProviderBaidu    = "baidu"
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
	ProviderGroq     = "groq"
)

// Environment variable names for credentials
const (
	EnvBaiduKey       = "BAIDU_API_KEY"
	EnvBaiduSecretKey = "BAIDU_SECRET_KEY"
	EnvDeepSeekKey    = "DEEPSEEK_API_KEY"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvGroqKey        = "GROQ_API_KEY"
)

// EnvVarForProvider returns the environment variable name for a provider's API key
func EnvVarForProvider(provider string) string {
	switch provider {
	case ProviderBaidu:
		return EnvBaiduKey
	case ProviderDeepSeek:
		return EnvDeepSeekKey
	case ProviderOpenAI:
		return EnvOpenAIKey
	case ProviderGroq:
		return EnvGroqKey
	default:
		return ""
	}
}

// SecretEnvVarForProvider returns the environment variable holding a
// provider's secret key, or "" when the provider has none.
func SecretEnvVarForProvider(provider string) string {
	if provider == ProviderBaidu {
		return EnvBaiduSecretKey
	}
	return ""
}
