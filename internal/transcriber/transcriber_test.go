package transcriber

import (
	"testing"

	"github.com/leonardotrapani/medintake/internal/baidu"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantErr  bool
		wantType string
	}{
		{
			name:     "baidu with keys",
			config:   Config{Provider: "baidu", APIKey: "ak", SecretKey: "sk"},
			wantType: "baidu",
		},
		{
			name:     "baidu with shared token source",
			config:   Config{Provider: "baidu", Tokens: baidu.NewTokenSource("ak", "sk")},
			wantType: "baidu",
		},
		{
			name:    "baidu without secret",
			config:  Config{Provider: "baidu", APIKey: "ak"},
			wantErr: true,
		},
		{
			name:     "openai",
			config:   Config{Provider: "openai", APIKey: "sk-test", Model: "whisper-1"},
			wantType: "openai",
		},
		{
			name:    "openai without key",
			config:  Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:     "groq",
			config:   Config{Provider: "groq", APIKey: "gsk-test"},
			wantType: "groq",
		},
		{
			name:    "unsupported",
			config:  Config{Provider: "deepgram", APIKey: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := New(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			switch a := adapter.(type) {
			case *BaiduAdapter:
				if tt.wantType != "baidu" {
					t.Errorf("got baidu adapter, want %s", tt.wantType)
				}
				if a.config.DevPID != 80001 || a.config.SampleRate != 16000 {
					t.Errorf("defaults not applied: %+v", a.config)
				}
			case *OpenAIAdapter:
				if a.name != tt.wantType {
					t.Errorf("got %s adapter, want %s", a.name, tt.wantType)
				}
			default:
				t.Errorf("unexpected adapter type %T", adapter)
			}
		})
	}
}

func TestAlignPCM(t *testing.T) {
	tests := []struct {
		in       int
		channels int
		want     int
	}{
		{in: 4, channels: 1, want: 4},
		{in: 5, channels: 1, want: 4},
		{in: 7, channels: 2, want: 4},
		{in: 1, channels: 1, want: 0},
	}

	for _, tt := range tests {
		if got := len(alignPCM(make([]byte, tt.in), tt.channels)); got != tt.want {
			t.Errorf("alignPCM(%d bytes, %d ch) = %d bytes, want %d", tt.in, tt.channels, got, tt.want)
		}
	}
}
