package tui

import (
	"strings"
	"testing"

	"github.com/leonardotrapani/medintake/internal/config"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "***"},
		{"short", "***"},
		{"sk-1234567890abcdef", "sk-1234...cdef"},
	}
	for _, tc := range tests {
		if got := maskAPIKey(tc.key); got != tc.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestGetProviderDisplayName(t *testing.T) {
	if got := getProviderDisplayName("baidu"); got != "Baidu AI Cloud" {
		t.Errorf("baidu display name = %q", got)
	}
	if got := getProviderDisplayName("custom"); got != "custom" {
		t.Errorf("unknown provider should fall back to its id, got %q", got)
	}
}

func TestLLMProviderOptions(t *testing.T) {
	var keys []string
	for _, o := range llmProviderOptions() {
		keys = append(keys, o.Value)
	}
	joined := strings.Join(keys, ",")
	if !strings.Contains(joined, "deepseek") || strings.Contains(joined, "baidu") {
		t.Errorf("unexpected llm providers %v", keys)
	}
}

func TestValidateKey(t *testing.T) {
	validate := validateKey("deepseek")
	if err := validate(""); err != nil {
		t.Errorf("empty key should be accepted: %v", err)
	}
	if err := validate("sk-abc"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := validate("abc"); err == nil {
		t.Error("expected format error")
	}
}

func TestBuildInitOptionsKeepsExisting(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers = map[string]config.ProviderConfig{
		"baidu":    {APIKey: "old-baidu-key-0123", SecretKey: "old-secret"},
		"deepseek": {APIKey: "sk-old"},
	}

	opts := buildInitOptions(cfg, "", "new-secret", "deepseek", "")
	if opts.BaiduAPIKey != "old-baidu-key-0123" || opts.BaiduSecretKey != "new-secret" {
		t.Errorf("baidu keys = %q/%q", opts.BaiduAPIKey, opts.BaiduSecretKey)
	}
	if opts.LLMAPIKey != "sk-old" || opts.LLMProvider != "deepseek" {
		t.Errorf("llm = %q/%q", opts.LLMProvider, opts.LLMAPIKey)
	}
	if !opts.Overwrite {
		t.Error("setup must overwrite the existing file")
	}

	opts = buildInitOptions(cfg, "", "", "groq", "gsk_new")
	if opts.LLMAPIKey != "gsk_new" {
		t.Errorf("groq key = %q", opts.LLMAPIKey)
	}
}
