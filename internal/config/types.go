package config

import "time"

type Config struct {
	Recording     RecordingConfig           `toml:"recording"`
	Recognition   RecognitionConfig         `toml:"recognition"`
	Speech        SpeechConfig              `toml:"speech"`
	LLM           LLMConfig                 `toml:"llm"`
	Providers     map[string]ProviderConfig `toml:"providers"`
	Baidu         BaiduConfig               `toml:"baidu"`
	Script        ScriptConfig              `toml:"script"`
	Messages      MessagesConfig            `toml:"messages"`
	Output        OutputConfig              `toml:"output"`
	Notifications NotificationsConfig       `toml:"notifications"`

	// values read from .env in the working directory
	dotenv map[string]string
}

// ProviderConfig holds credentials for a provider
type ProviderConfig struct {
	APIKey    string `toml:"api_key"`
	SecretKey string `toml:"secret_key"`
}

type RecordingConfig struct {
	SampleRate        int           `toml:"sample_rate"`
	Channels          int           `toml:"channels"`
	Format            string        `toml:"format"`
	BufferSize        int           `toml:"buffer_size"`
	Device            string        `toml:"device"`
	ChannelBufferSize int           `toml:"channel_buffer_size"`
	MaxDuration       time.Duration `toml:"max_duration"`
}

type RecognitionConfig struct {
	Provider string        `toml:"provider"`
	Language string        `toml:"language"`
	Model    string        `toml:"model"`
	DevPID   int           `toml:"dev_pid"` // baidu only
	Timeout  time.Duration `toml:"timeout"`
}

// SpeechConfig configures spoken playback of assistant messages
type SpeechConfig struct {
	Enabled  bool          `toml:"enabled"`
	Provider string        `toml:"provider"`
	Model    string        `toml:"model"`
	Language string        `toml:"language"`
	Speed    int           `toml:"speed"`  // 0-15
	Pitch    int           `toml:"pitch"`  // 0-15
	Volume   int           `toml:"volume"` // 0-15
	Person   int           `toml:"person"` // baidu voice id
	Voice    string        `toml:"voice"`  // openai voice name
	Device   string        `toml:"device"`
	Timeout  time.Duration `toml:"timeout"`
}

type LLMConfig struct {
	Provider     string        `toml:"provider"`
	Model        string        `toml:"model"`
	BaseURL      string        `toml:"base_url"`
	Temperature  float32       `toml:"temperature"`
	MaxTokens    int           `toml:"max_tokens"`
	Timeout      time.Duration `toml:"timeout"`
	SystemPrompt string        `toml:"system_prompt"`
}

type BaiduConfig struct {
	CUID string `toml:"cuid"`
}

// ScriptConfig overrides the built-in questionnaire. Empty means default.
type ScriptConfig struct {
	Greeting  string   `toml:"greeting"`
	Questions []string `toml:"questions"`
}

// MessagesConfig overrides user-facing notices. Empty fields keep defaults.
type MessagesConfig struct {
	PleaseWait        string `toml:"please_wait"`
	InviteSupplement  string `toml:"invite_supplement"`
	Farewell          string `toml:"farewell"`
	RecordSaved       string `toml:"record_saved"`
	RecordFailed      string `toml:"record_failed"`
	RecognitionFailed string `toml:"recognition_failed"`
	SynthesisFailed   string `toml:"synthesis_failed"`
	CaptureFailed     string `toml:"capture_failed"`
	DeviceUnavailable string `toml:"device_unavailable"`
	AlreadyRecording  string `toml:"already_recording"`
}

type OutputConfig struct {
	RecordDir string `toml:"record_dir"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}
