package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/medintake/internal/config"
	"github.com/leonardotrapani/medintake/internal/provider"
	"github.com/muesli/termenv"
)

var providerDisplayNames = map[string]string{
	provider.ProviderBaidu:    "Baidu AI Cloud",
	provider.ProviderDeepSeek: "DeepSeek",
	provider.ProviderOpenAI:   "OpenAI",
	provider.ProviderGroq:     "Groq",
}

// getProviderDisplayName returns the display name for a provider
func getProviderDisplayName(providerName string) string {
	if name, ok := providerDisplayNames[providerName]; ok {
		return name
	}
	return providerName
}

// maskAPIKey returns a masked version of an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

func llmProviderOptions() []huh.Option[string] {
	var options []huh.Option[string]
	for _, name := range provider.ListProvidersWith(provider.LLM) {
		label := getProviderDisplayName(name)
		if p := provider.GetProvider(name); p != nil {
			label = fmt.Sprintf("%s - %s", label, p.DefaultModel(provider.LLM))
		}
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

func keyDescription(existing string) string {
	if existing == "" {
		return "Leave empty to read it from the environment or .env"
	}
	return fmt.Sprintf("Current: %s (leave empty to keep)", maskAPIKey(existing))
}

func validateKey(providerName string) func(string) error {
	p := provider.GetProvider(providerName)
	return func(s string) error {
		if s == "" || p == nil || p.ValidateAPIKey(s) {
			return nil
		}
		return fmt.Errorf("invalid API key format for %s", getProviderDisplayName(providerName))
	}
}

// RunSetup asks for the provider credentials used by the intake session.
// Values already present in existing are kept when left empty.
func RunSetup(existing *config.Config) (config.InitOptions, error) {
	termenv.NewOutput(os.Stdout).ClearScreen()
	fmt.Println(Logo())

	if existing == nil {
		existing = config.DefaultConfig()
	}
	baidu := existing.Providers[provider.ProviderBaidu]

	var baiduKey, baiduSecret string
	llmProvider := existing.LLM.Provider
	if provider.GetProvider(llmProvider) == nil {
		llmProvider = provider.ProviderDeepSeek
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Baidu API Key").
				Description(keyDescription(baidu.APIKey)).
				EchoMode(huh.EchoModePassword).
				Validate(validateKey(provider.ProviderBaidu)).
				Value(&baiduKey),
			huh.NewInput().
				Title("Baidu Secret Key").
				Description(keyDescription(baidu.SecretKey)).
				EchoMode(huh.EchoModePassword).
				Value(&baiduSecret),
		).Title("Speech recognition and playback"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Record generation provider").
				Options(llmProviderOptions()...).
				Value(&llmProvider),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return config.InitOptions{}, err
	}

	existingLLMKey := existing.Providers[llmProvider].APIKey
	var llmKey string
	keyForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API Key", getProviderDisplayName(llmProvider))).
				Description(keyDescription(existingLLMKey)).
				EchoMode(huh.EchoModePassword).
				Validate(validateKey(llmProvider)).
				Value(&llmKey),
		),
	).WithTheme(getTheme())

	if err := keyForm.Run(); err != nil {
		return config.InitOptions{}, err
	}

	return buildInitOptions(existing, baiduKey, baiduSecret, llmProvider, llmKey), nil
}

func buildInitOptions(existing *config.Config, baiduKey, baiduSecret, llmProvider, llmKey string) config.InitOptions {
	keep := func(value, current string) string {
		if value != "" {
			return value
		}
		return current
	}
	baidu := existing.Providers[provider.ProviderBaidu]
	return config.InitOptions{
		BaiduAPIKey:    keep(baiduKey, baidu.APIKey),
		BaiduSecretKey: keep(baiduSecret, baidu.SecretKey),
		LLMProvider:    llmProvider,
		LLMAPIKey:      keep(llmKey, existing.Providers[llmProvider].APIKey),
		Overwrite:      true,
	}
}
