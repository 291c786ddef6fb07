//go:build integration

package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/leonardotrapani/medintake/internal/baidu"
	"github.com/leonardotrapani/medintake/internal/config"
	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/leonardotrapani/medintake/internal/llm"
	"github.com/leonardotrapani/medintake/internal/provider"
	"github.com/leonardotrapani/medintake/internal/speech"
	"github.com/leonardotrapani/medintake/internal/transcriber"
)

const testTimeout = 60 * time.Second

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Logf("warning: could not load config: %v", err)
		return config.DefaultConfig()
	}
	return cfg
}

func TestRecordGeneration(t *testing.T) {
	cfg := loadTestConfig(t)
	if !cfg.HasAPIKey(cfg.LLM.Provider) {
		t.Skipf("no API key for %s", cfg.LLM.Provider)
	}

	gen, err := llm.New(cfg.ToLLMConfig())
	if err != nil {
		t.Fatalf("llm.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	doc, err := gen.Generate(ctx, conversation.RecordRequest{
		SystemPrompt: cfg.SystemPrompt(),
		Turns: []conversation.Turn{
			{Speaker: conversation.Assistant, Text: "请问您哪里不舒服？"},
			{Speaker: conversation.Patient, Text: "我头痛三天了，晚上更严重。"},
			{Speaker: conversation.Assistant, Text: "以前有过类似的情况吗？"},
			{Speaker: conversation.Patient, Text: "没有，也没有过敏史。"},
		},
	})
	if err != nil {
		t.Fatalf("Generate with %s: %v", gen.Model(), err)
	}
	if !strings.Contains(doc, "头痛") {
		t.Errorf("record does not mention the chief complaint:\n%s", doc)
	}
}

func TestBaiduSpeechRoundTrip(t *testing.T) {
	cfg := loadTestConfig(t)
	if !cfg.HasAPIKey(provider.ProviderBaidu) {
		t.Skip("no Baidu credentials")
	}

	cfg.Speech.Provider = provider.ProviderBaidu
	cfg.Recognition.Provider = provider.ProviderBaidu

	speechCfg := cfg.ToSpeechConfig()
	tokens := baidu.NewTokenSource(speechCfg.APIKey, speechCfg.SecretKey)
	speechCfg.Tokens = tokens
	synth, err := speech.New(speechCfg)
	if err != nil {
		t.Fatalf("speech.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	const sentence = "您好，请问您哪里不舒服"
	data, err := synth.Synthesize(ctx, sentence)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("synthesized audio is not mp3: %v", err)
	}
	stereo, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate() != 16000 {
		t.Skipf("synthesized at %d Hz, recognition needs 16000", dec.SampleRate())
	}

	// keep the left channel of the 16-bit stereo output
	mono := make([]byte, 0, len(stereo)/2)
	for i := 0; i+3 < len(stereo); i += 4 {
		mono = append(mono, stereo[i], stereo[i+1])
	}

	recCfg := cfg.ToTranscriberConfig()
	recCfg.Tokens = tokens
	rec, err := transcriber.New(recCfg)
	if err != nil {
		t.Fatalf("transcriber.New: %v", err)
	}

	text, err := rec.Transcribe(ctx, mono)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.Contains(text, "不舒服") {
		t.Errorf("round trip lost the sentence: %q", text)
	}
}
