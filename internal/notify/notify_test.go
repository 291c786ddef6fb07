package notify

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		typ  string
		want Notifier
	}{
		{"desktop", Desktop{}},
		{"log", Log{}},
		{"none", Nop{}},
		{"", Nop{}},
		{"bogus", Nop{}},
	}
	for _, tc := range tests {
		t.Run(tc.typ, func(t *testing.T) {
			if got := New(tc.typ); got != tc.want {
				t.Errorf("New(%q) = %T, want %T", tc.typ, got, tc.want)
			}
		})
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	tests := []struct {
		name string
		call func(Notifier)
		want []string
	}{
		{"recording started", func(n Notifier) { n.RecordingChanged(true) }, []string{"Medintake", "Listening"}},
		{"recording stopped", func(n Notifier) { n.RecordingChanged(false) }, []string{"Stopped Listening"}},
		{"record ready", func(n Notifier) { n.RecordReady("/tmp/r.md") }, []string{"Record Ready", "/tmp/r.md"}},
		{"error", func(n Notifier) { n.Error("麦克风不可用") }, []string{"Error", "麦克风不可用"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			tc.call(Log{})
			out := buf.String()
			for _, want := range tc.want {
				if !strings.Contains(out, want) {
					t.Errorf("log output %q missing %q", out, want)
				}
			}
		})
	}
}

func TestNopNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	n := Nop{}
	n.RecordingChanged(true)
	n.RecordReady("x")
	n.Error("x")

	if buf.Len() != 0 {
		t.Errorf("Nop produced output: %q", buf.String())
	}
}
