package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/leonardotrapani/medintake/internal/provider"
)

// DotEnvPath is read for API keys missing from both config and environment.
var DotEnvPath = ".env"

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	appDir := filepath.Join(configDir, "medintake")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(appDir, "config.toml"), nil
}

// Load reads the user config file. A missing file yields the defaults.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile decodes path on top of DefaultConfig, so omitted keys keep their
// default values.
func LoadFile(configPath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("Config: %s not found, using defaults", configPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	} else {
		log.Printf("Config: loading configuration from %s", configPath)
		meta, err := toml.DecodeFile(configPath, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			log.Printf("Config: ignoring unknown keys %v", undecoded)
		}
	}

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}

	config.loadDotEnv()
	config.applyCUIDDefault()

	log.Printf("Config: configuration loaded successfully")
	return config, nil
}

func (c *Config) loadDotEnv() {
	env, err := godotenv.Read(DotEnvPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Config: failed to read %s: %v", DotEnvPath, err)
		}
		return
	}
	log.Printf("Config: loaded %d entries from %s", len(env), DotEnvPath)
	c.dotenv = env
}

// applyCUIDDefault assigns a device id for Baidu requests when none is configured
func (c *Config) applyCUIDDefault() {
	if c.Baidu.CUID == "" {
		c.Baidu.CUID = uuid.NewString()
	}
}

func SaveDefaultConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveDefaultConfigTo(configPath)
}

func SaveDefaultConfigTo(configPath string) error {
	return WriteConfig(configPath, InitOptions{})
}

// InitOptions seeds the generated config file. Empty fields keep the defaults.
type InitOptions struct {
	BaiduAPIKey    string
	BaiduSecretKey string
	LLMProvider    string
	LLMAPIKey      string
	// Overwrite replaces an existing file instead of failing.
	Overwrite bool
}

// WriteConfig writes the commented config template to configPath.
func WriteConfig(configPath string, opts InitOptions) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if opts.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(configPath, flags, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	defaults := DefaultConfig()
	llmProvider := opts.LLMProvider
	if llmProvider == "" {
		llmProvider = defaults.LLM.Provider
	}
	llmModel := defaults.LLM.Model
	if p := provider.GetProvider(llmProvider); p != nil && llmProvider != defaults.LLM.Provider {
		llmModel = p.DefaultModel(provider.LLM)
	}

	providerSections := fmt.Sprintf(`[providers.baidu]
  api_key = %q
  secret_key = %q
`, opts.BaiduAPIKey, opts.BaiduSecretKey)
	if llmProvider != provider.ProviderBaidu {
		providerSections += fmt.Sprintf(`
[providers.%s]
  api_key = %q
`, llmProvider, opts.LLMAPIKey)
	}

	configContent := fmt.Sprintf(`# Medintake Configuration
# This file is automatically generated with defaults.
# Voice parameters in [speech] are applied to the next utterance without restart.

# Microphone capture
[recording]
  sample_rate = 16000          # Hz; Baidu ASR expects 16000
  channels = 1
  format = "s16"
  buffer_size = 8192
  device = ""                  # PipeWire source (empty = default microphone)
  channel_buffer_size = 30
  max_duration = "2m"          # a capture is stopped automatically after this

# Speech recognition
[recognition]
  provider = "baidu"           # "baidu", "openai" or "groq"
  language = "zh"             # "zh", "yue", "en"; openai/groq accept more
  dev_pid = 0                  # Baidu model; 0 picks one from language (zh = 80001)
  model = ""                   # openai/groq whisper model
  timeout = "30s"

# Spoken playback of assistant messages
[speech]
  enabled = true
  provider = "baidu"           # "baidu" or "openai"
  language = "zh"
  speed = 5                    # 0-15
  pitch = 5                    # 0-15
  volume = 7                   # 0-15
  person = 1                   # Baidu voice id
  voice = "alloy"              # OpenAI voice
  device = ""                  # PipeWire sink (empty = default output)
  timeout = "10s"

# Record generation
[llm]
  provider = %q        # "deepseek", "openai" or "groq"
  model = %q
  temperature = 0.2
  max_tokens = 4000
  timeout = "3m"

# API keys may also come from the environment or a .env file:
# %s, %s, %s, %s, %s
%s
[output]
  record_dir = ""              # empty = ~/.local/share/medintake/records

[notifications]
  enabled = false
  type = "log"                 # "desktop", "log", "none"
`, llmProvider, llmModel,
		provider.EnvBaiduKey, provider.EnvBaiduSecretKey, provider.EnvDeepSeekKey, provider.EnvOpenAIKey, provider.EnvGroqKey,
		providerSections)

	if _, err := file.WriteString(configContent); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}

	return nil
}
