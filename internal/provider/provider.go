package provider

import "sort"

// Capability is a service a provider can back.
type Capability int

const (
	Recognition Capability = iota
	Synthesis
	LLM
)

func (c Capability) String() string {
	switch c {
	case Recognition:
		return "recognition"
	case Synthesis:
		return "synthesis"
	case LLM:
		return "llm"
	default:
		return "unknown"
	}
}

// Provider describes a remote speech or language-model service.
type Provider interface {
	Name() string
	RequiresSecretKey() bool
	ValidateAPIKey(key string) bool
	BaseURL() string
	Models(c Capability) []string
	DefaultModel(c Capability) string
}

// Supports reports whether p offers capability c.
func Supports(p Provider, c Capability) bool {
	return len(p.Models(c)) > 0
}

var registry = make(map[string]Provider)

func init() {
	Register(&BaiduProvider{})
	Register(&DeepSeekProvider{})
	Register(&OpenAIProvider{})
	Register(&GroqProvider{})
}

// Register adds a provider to the registry
func Register(p Provider) {
	registry[p.Name()] = p
}

// GetProvider returns a provider by name, or nil if not found
func GetProvider(name string) Provider {
	return registry[name]
}

// ListProviders returns all registered provider names, sorted
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListProvidersWith returns the sorted names of providers offering c
func ListProvidersWith(c Capability) []string {
	var names []string
	for name, p := range registry {
		if Supports(p, c) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
