package config

import (
	"fmt"
	"strings"

	"github.com/leonardotrapani/medintake/internal/language"
	"github.com/leonardotrapani/medintake/internal/provider"
)

// Validate returns the first offending field.
func (c *Config) Validate() error {
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", c.Recording.BufferSize)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}
	if c.Recording.Format == "" {
		return fmt.Errorf("invalid recording.format: empty")
	}
	if c.Recording.MaxDuration <= 0 {
		return fmt.Errorf("invalid recording.max_duration: %v", c.Recording.MaxDuration)
	}

	if err := c.validateRecognition(); err != nil {
		return err
	}
	if c.Speech.Enabled {
		if err := c.validateSpeech(); err != nil {
			return err
		}
	}
	if err := c.validateLLM(); err != nil {
		return err
	}

	if err := c.ToScript().Validate(); err != nil {
		return fmt.Errorf("invalid script: %w", err)
	}
	if err := c.validateMessages(); err != nil {
		return err
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

func (c *Config) validateRecognition() error {
	name := c.Recognition.Provider
	if err := c.validateProvider("recognition", name, provider.Recognition); err != nil {
		return err
	}
	if !language.IsValidCode(c.Recognition.Language) {
		return fmt.Errorf("invalid recognition.language: %s (must be one of %s)",
			c.Recognition.Language, strings.Join(language.Codes(), ", "))
	}
	if name == provider.ProviderBaidu {
		if c.Recognition.DevPID < 0 {
			return fmt.Errorf("invalid recognition.dev_pid: %d", c.Recognition.DevPID)
		}
		if _, ok := language.BaiduDevPID(c.Recognition.Language); !ok && c.Recognition.DevPID == 0 {
			return fmt.Errorf("recognition.language %q is not supported by baidu (use one of %s or set dev_pid)",
				c.Recognition.Language, strings.Join(language.BaiduCodes(), ", "))
		}
	}
	if c.Recognition.Timeout <= 0 {
		return fmt.Errorf("invalid recognition.timeout: %v", c.Recognition.Timeout)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if err := c.validateProvider("speech", c.Speech.Provider, provider.Synthesis); err != nil {
		return err
	}
	for _, p := range []struct {
		name  string
		value int
	}{
		{"speed", c.Speech.Speed},
		{"pitch", c.Speech.Pitch},
		{"volume", c.Speech.Volume},
	} {
		if p.value < 0 || p.value > 15 {
			return fmt.Errorf("invalid speech.%s: %d (must be 0-15)", p.name, p.value)
		}
	}
	if c.Speech.Person < 0 {
		return fmt.Errorf("invalid speech.person: %d", c.Speech.Person)
	}
	if c.Speech.Timeout <= 0 {
		return fmt.Errorf("invalid speech.timeout: %v", c.Speech.Timeout)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.BaseURL == "" {
		if err := c.validateProvider("llm", c.LLM.Provider, provider.LLM); err != nil {
			return err
		}
	} else if c.resolveAPIKey(c.LLM.Provider) == "" {
		return fmt.Errorf("llm API key required: set providers.%s.api_key", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm.temperature: %v (must be 0-2)", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("invalid llm.max_tokens: %d", c.LLM.MaxTokens)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("invalid llm.timeout: %v", c.LLM.Timeout)
	}
	return nil
}

func (c *Config) validateProvider(section, name string, capability provider.Capability) error {
	if name == "" {
		return fmt.Errorf("invalid %s.provider: empty", section)
	}
	p := provider.GetProvider(name)
	if p == nil || !provider.Supports(p, capability) {
		return fmt.Errorf("unsupported %s.provider: %s (must be one of %s)",
			section, name, strings.Join(provider.ListProvidersWith(capability), ", "))
	}

	if c.resolveAPIKey(name) == "" {
		return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key), environment variable (%s) or .env",
			name, name, provider.EnvVarForProvider(name))
	}
	if p.RequiresSecretKey() && c.resolveSecretKey(name) == "" {
		return fmt.Errorf("%s secret key required: not found in config (providers.%s.secret_key), environment variable (%s) or .env",
			name, name, provider.SecretEnvVarForProvider(name))
	}
	return nil
}

// validateMessages checks that every overridden template takes exactly the
// arguments it is formatted with.
func (c *Config) validateMessages() error {
	m := c.Messages
	checks := []struct {
		key   string
		value string
		verbs int
		args  string
	}{
		{"record_saved", m.RecordSaved, 2, "path, document"},
		{"record_failed", m.RecordFailed, 1, "error"},
		{"recognition_failed", m.RecognitionFailed, 1, "error"},
		{"synthesis_failed", m.SynthesisFailed, 1, "error"},
		{"capture_failed", m.CaptureFailed, 1, "error"},
		{"device_unavailable", m.DeviceUnavailable, 1, "error"},
	}
	for _, chk := range checks {
		if chk.value == "" {
			continue
		}
		if n := countVerbs(chk.value); n != chk.verbs {
			return fmt.Errorf("invalid messages.%s: has %d format verbs, want %d (%s)", chk.key, n, chk.verbs, chk.args)
		}
	}
	return nil
}

// countVerbs counts fmt verbs in s, ignoring escaped %%.
func countVerbs(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}
