package config

import "time"

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16",
			BufferSize:        8192,
			Device:            "",
			ChannelBufferSize: 30,
			MaxDuration:       2 * time.Minute,
		},
		Recognition: RecognitionConfig{
			Provider: "baidu",
			Language: "zh",
			DevPID:   0,
			Timeout:  30 * time.Second,
		},
		Speech: SpeechConfig{
			Enabled:  true,
			Provider: "baidu",
			Language: "zh",
			Speed:    5,
			Pitch:    5,
			Volume:   7,
			Person:   1,
			Voice:    "alloy",
			Timeout:  10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "deepseek",
			Model:       "deepseek-chat",
			Temperature: 0.2,
			MaxTokens:   4000,
			Timeout:     3 * time.Minute,
		},
		Providers: make(map[string]ProviderConfig),
		Notifications: NotificationsConfig{
			Enabled: false,
			Type:    "log",
		},
	}
}
