package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leonardotrapani/medintake/internal/config"
	"github.com/leonardotrapani/medintake/internal/deps"
	"github.com/leonardotrapani/medintake/internal/store"
	"github.com/leonardotrapani/medintake/internal/testutil"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"chat", "toggle", "status", "version", "stop", "configure", "config", "records", "doctor"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered (err=%v)", name, err)
		}
	}

	if cmd, _, err := root.Find([]string{"serve"}); err != nil || cmd.Name() != "chat" {
		t.Errorf("serve should alias chat, got %v (err=%v)", cmd, err)
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, map[string]string{"mode": "supplement_collection", "capture": "active"})

	want := "capture:      active\nmode:         supplement_collection\n"
	if buf.String() != want {
		t.Errorf("printStatus =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "***"},
		{"sk-0123456789", "sk-0****89"},
	}
	for _, tc := range tests {
		if got := maskSecret(tc.in); got != tc.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteConfigMasksKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers = map[string]config.ProviderConfig{
		"deepseek": {APIKey: "sk-verysecretvalue"},
	}

	var buf bytes.Buffer
	if err := writeConfig(&buf, cfg); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}
	if strings.Contains(buf.String(), "verysecret") {
		t.Errorf("secret leaked:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "deepseek-chat") {
		t.Errorf("model missing from output:\n%s", buf.String())
	}
	if cfg.Providers["deepseek"].APIKey != "sk-verysecretvalue" {
		t.Error("writeConfig modified the caller's config")
	}
}

func TestRecordsCommand(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	path, err := s.SaveRecord("# 病历\n主诉: 咳嗽")
	s.Close()
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	name := filepath.Base(path)

	run := func(args ...string) string {
		t.Helper()
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("medintake %v: %v", args, err)
		}
		return out.String()
	}

	if list := run("records", "--dir", dir); !strings.Contains(list, name) {
		t.Errorf("listing missing %s:\n%s", name, list)
	}
	if doc := run("records", "--dir", dir, name); !strings.Contains(doc, "主诉: 咳嗽") {
		t.Errorf("record body not printed:\n%s", doc)
	}
}

func TestListRecordsEmpty(t *testing.T) {
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	var buf bytes.Buffer
	if err := listRecords(&buf, s); err != nil {
		t.Fatalf("listRecords: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "no records in") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestStatusWithoutSession(t *testing.T) {
	dir, err := os.MkdirTemp("", "mid")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	t.Setenv("XDG_CACHE_HOME", dir)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"status"})
	if err := root.Execute(); err == nil {
		t.Error("expected an error with no running session")
	}
}

func TestPrintDoctor(t *testing.T) {
	installed := deps.Result{Dependency: deps.PwRecord, Status: deps.Status{Installed: true, Version: "1.2.7"}}
	optional := deps.Result{Dependency: deps.NotifySend}
	missing := deps.Result{Dependency: deps.PwPlay}

	var buf bytes.Buffer
	if err := printDoctor(&buf, []deps.Result{installed, optional}, nil); err != nil {
		t.Errorf("optional programs must not fail the check: %v", err)
	}
	if !strings.Contains(buf.String(), "[x] pw-record") || !strings.Contains(buf.String(), "optional") {
		t.Errorf("unexpected report:\n%s", buf.String())
	}

	buf.Reset()
	if err := printDoctor(&buf, []deps.Result{missing}, errors.New("baidu API key required")); err == nil {
		t.Error("expected failure with missing program and bad config")
	}
	if !strings.Contains(buf.String(), "speech playback") || !strings.Contains(buf.String(), "baidu API key required") {
		t.Errorf("unexpected report:\n%s", buf.String())
	}
}

func TestRecordsDefaultsToStdout(t *testing.T) {
	dir := t.TempDir()

	out := testutil.CaptureOutput(t, func() {
		root := newRootCmd()
		root.SetArgs([]string{"records", "--dir", dir})
		if err := root.Execute(); err != nil {
			t.Errorf("records: %v", err)
		}
	})
	if !strings.Contains(out, "no records in "+dir) {
		t.Errorf("unexpected stdout %q", out)
	}
}
