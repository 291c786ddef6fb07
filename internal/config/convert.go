package config

import (
	"os"

	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/leonardotrapani/medintake/internal/language"
	"github.com/leonardotrapani/medintake/internal/llm"
	"github.com/leonardotrapani/medintake/internal/notify"
	"github.com/leonardotrapani/medintake/internal/provider"
	"github.com/leonardotrapani/medintake/internal/recording"
	"github.com/leonardotrapani/medintake/internal/speech"
	"github.com/leonardotrapani/medintake/internal/store"
	"github.com/leonardotrapani/medintake/internal/transcriber"
)

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Recording.SampleRate,
		Channels:          c.Recording.Channels,
		Format:            c.Recording.Format,
		BufferSize:        c.Recording.BufferSize,
		Device:            c.Recording.Device,
		ChannelBufferSize: c.Recording.ChannelBufferSize,
		MaxDuration:       c.Recording.MaxDuration,
	}
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	devPID := c.Recognition.DevPID
	if devPID == 0 {
		devPID, _ = language.BaiduDevPID(c.Recognition.Language)
	}
	return transcriber.Config{
		Provider:   c.Recognition.Provider,
		APIKey:     c.resolveAPIKey(c.Recognition.Provider),
		SecretKey:  c.resolveSecretKey(c.Recognition.Provider),
		Language:   c.Recognition.Language,
		Model:      c.Recognition.Model,
		DevPID:     devPID,
		CUID:       c.Baidu.CUID,
		SampleRate: c.Recording.SampleRate,
		Channels:   c.Recording.Channels,
	}
}

func (c *Config) ToSpeechConfig() speech.Config {
	return speech.Config{
		Provider:  c.Speech.Provider,
		APIKey:    c.resolveAPIKey(c.Speech.Provider),
		SecretKey: c.resolveSecretKey(c.Speech.Provider),
		CUID:      c.Baidu.CUID,
		Model:     c.Speech.Model,
		Timeout:   c.Speech.Timeout,
		Params:    c.SpeechParams(),
	}
}

// SpeechParams returns the voice parameters that may change on reload
func (c *Config) SpeechParams() speech.Params {
	return speech.Params{
		Language: c.Speech.Language,
		Speed:    c.Speech.Speed,
		Pitch:    c.Speech.Pitch,
		Volume:   c.Speech.Volume,
		Person:   c.Speech.Person,
		Voice:    c.Speech.Voice,
	}
}

func (c *Config) ToLLMConfig() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		APIKey:      c.resolveAPIKey(c.LLM.Provider),
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
	}
}

// SystemPrompt returns the configured record prompt or the built-in one
func (c *Config) SystemPrompt() string {
	if c.LLM.SystemPrompt != "" {
		return c.LLM.SystemPrompt
	}
	return llm.DefaultSystemPrompt
}

// ToScript returns the configured questionnaire, falling back to the
// built-in one when no questions are set.
func (c *Config) ToScript() conversation.Script {
	script := conversation.DefaultScript()
	if c.Script.Greeting != "" {
		script.Greeting = c.Script.Greeting
	}
	if len(c.Script.Questions) > 0 {
		script.Questions = append([]string(nil), c.Script.Questions...)
	}
	return script
}

func (c *Config) ToMessages() conversation.Messages {
	m := c.Messages
	return conversation.Messages{
		PleaseWait:        m.PleaseWait,
		InviteSupplement:  m.InviteSupplement,
		Farewell:          m.Farewell,
		RecordSaved:       m.RecordSaved,
		RecordFailed:      m.RecordFailed,
		RecognitionFailed: m.RecognitionFailed,
		SynthesisFailed:   m.SynthesisFailed,
		CaptureFailed:     m.CaptureFailed,
		DeviceUnavailable: m.DeviceUnavailable,
		AlreadyRecording:  m.AlreadyRecording,
	}.WithDefaults()
}

// RecordDir returns output.record_dir or the default data directory
func (c *Config) RecordDir() (string, error) {
	if c.Output.RecordDir != "" {
		return c.Output.RecordDir, nil
	}
	return store.DefaultDir()
}

func (c *Config) Notifier() notify.Notifier {
	if !c.Notifications.Enabled {
		return notify.Nop{}
	}
	return notify.New(c.Notifications.Type)
}

// resolveAPIKey looks up a provider key in config, then the environment,
// then .env.
func (c *Config) resolveAPIKey(name string) string {
	if pc, ok := c.Providers[name]; ok && pc.APIKey != "" {
		return pc.APIKey
	}
	return c.lookupEnv(provider.EnvVarForProvider(name))
}

func (c *Config) resolveSecretKey(name string) string {
	if pc, ok := c.Providers[name]; ok && pc.SecretKey != "" {
		return pc.SecretKey
	}
	return c.lookupEnv(provider.SecretEnvVarForProvider(name))
}

func (c *Config) lookupEnv(envVar string) string {
	if envVar == "" {
		return ""
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return c.dotenv[envVar]
}

// HasAPIKey reports whether a key for the provider can be resolved
func (c *Config) HasAPIKey(name string) bool {
	return c.resolveAPIKey(name) != ""
}
