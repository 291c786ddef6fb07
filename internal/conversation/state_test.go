package conversation

import (
	"strings"
	"testing"
)

func TestNewStateCopiesScript(t *testing.T) {
	script := Script{Greeting: "hi", Questions: []string{"a", "b"}}
	s := NewState(script)
	script.Questions[0] = "mutated"

	if got := s.Script().Questions[0]; got != "a" {
		t.Errorf("state shares the caller's script: %q", got)
	}
	if s.Mode() != ScriptedQuestioning || s.Cursor() != 0 {
		t.Errorf("unexpected initial state mode=%s cursor=%d", s.Mode(), s.Cursor())
	}
}

func TestNextQuestion(t *testing.T) {
	s := NewState(Script{Questions: []string{"a", "b"}})

	for i, want := range []string{"a", "b"} {
		q, ok := s.nextQuestion()
		if !ok || q != want {
			t.Fatalf("question %d: got %q ok=%v", i, q, ok)
		}
	}
	if !s.finalAsked || !s.ScriptExhausted() {
		t.Error("expected final question marker after the last question")
	}
	if _, ok := s.nextQuestion(); ok {
		t.Error("expected no question after exhaustion")
	}
	if s.Cursor() != 2 {
		t.Errorf("cursor overran the script: %d", s.Cursor())
	}
}

func TestNextQuestionFrozenInSupplement(t *testing.T) {
	s := NewState(Script{Questions: []string{"a", "b"}})
	s.mode = SupplementCollection

	if _, ok := s.nextQuestion(); ok {
		t.Error("cursor advanced in supplement mode")
	}
	if s.Cursor() != 0 {
		t.Errorf("expected cursor 0, got %d", s.Cursor())
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	s := NewState(DefaultScript())
	s.append(Patient, "hello")

	turns := s.Turns()
	turns[0].Text = "changed"

	if s.Turns()[0].Text != "hello" {
		t.Error("Turns exposed internal storage")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 turn, got %d", s.Len())
	}
}

func TestTeardown(t *testing.T) {
	s := NewState(DefaultScript())
	s.append(Assistant, "greeting")
	s.Teardown()

	if s.Len() != 0 || len(s.Script().Questions) != 0 {
		t.Error("teardown left session data behind")
	}
}

func TestScriptValidate(t *testing.T) {
	tests := []struct {
		name    string
		script  Script
		wantErr string
	}{
		{name: "default", script: DefaultScript()},
		{name: "no questions", script: Script{Greeting: "hi"}},
		{name: "blank question", script: Script{Questions: []string{"a", "  "}}, wantErr: "question 2 is empty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.script.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDefaultScriptEndsWithInvite(t *testing.T) {
	script := DefaultScript()
	if len(script.Questions) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(script.Questions))
	}
	if last := script.Questions[len(script.Questions)-1]; !strings.Contains(last, "补充") {
		t.Errorf("last question should invite supplements: %q", last)
	}
}

func TestMessagesWithDefaults(t *testing.T) {
	m := Messages{Farewell: "bye"}.WithDefaults()

	if m.Farewell != "bye" {
		t.Errorf("override lost: %q", m.Farewell)
	}
	if m.PleaseWait != DefaultMessages().PleaseWait {
		t.Errorf("default not applied: %q", m.PleaseWait)
	}
}

func TestMessagesNotice(t *testing.T) {
	m := DefaultMessages()
	err := &Error{Kind: RecognitionFailed, Err: ErrNoSpeech}

	tests := []struct {
		kind ErrorKind
		want string
	}{
		{RecognitionFailed, "语音识别错误"},
		{SynthesisFailed, "语音合成错误"},
		{RecordGenerationFailed, "生成病历时发生错误"},
		{DeviceUnavailable, "麦克风"},
		{CaptureIOError, "录音失败"},
		{AlreadyRecording, "正在录音中"},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			if got := m.notice(tc.kind, err); !strings.Contains(got, tc.want) {
				t.Errorf("notice(%s) = %q, want it to contain %q", tc.kind, got, tc.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	err := newError(SynthesisFailed, ErrNoSpeech)

	if KindOf(err) != SynthesisFailed {
		t.Errorf("unexpected kind %q", KindOf(err))
	}
	if KindOf(ErrNoSpeech) != "" {
		t.Error("plain error should have no kind")
	}
	if !strings.Contains(err.Error(), "no speech") {
		t.Errorf("cause missing from message: %q", err.Error())
	}
}
