package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/leonardotrapani/medintake/internal/conversation"
)

// ErrorEvent is one OnError call seen by MockSurface.
type ErrorEvent struct {
	Kind    conversation.ErrorKind
	Message string
}

// MockSurface implements conversation.Surface and records every callback.
type MockSurface struct {
	mu            sync.Mutex
	assistant     []string
	echoes        []string
	records       []string
	errors        []ErrorEvent
	captureStates []bool
	ended         []string
}

func NewMockSurface() *MockSurface {
	return &MockSurface{}
}

func (m *MockSurface) OnAssistantMessage(text string) {
	m.mu.Lock()
	m.assistant = append(m.assistant, text)
	m.mu.Unlock()
}

func (m *MockSurface) OnUserMessageEcho(text string) {
	m.mu.Lock()
	m.echoes = append(m.echoes, text)
	m.mu.Unlock()
}

func (m *MockSurface) OnRecordReady(document string) {
	m.mu.Lock()
	m.records = append(m.records, document)
	m.mu.Unlock()
}

func (m *MockSurface) OnError(kind conversation.ErrorKind, message string) {
	m.mu.Lock()
	m.errors = append(m.errors, ErrorEvent{Kind: kind, Message: message})
	m.mu.Unlock()
}

func (m *MockSurface) OnCaptureStateChanged(recording bool) {
	m.mu.Lock()
	m.captureStates = append(m.captureStates, recording)
	m.mu.Unlock()
}

func (m *MockSurface) OnSessionEnded(message string) {
	m.mu.Lock()
	m.ended = append(m.ended, message)
	m.mu.Unlock()
}

func (m *MockSurface) AssistantMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.assistant...)
}

func (m *MockSurface) Echoes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.echoes...)
}

func (m *MockSurface) Records() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.records...)
}

func (m *MockSurface) Errors() []ErrorEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ErrorEvent(nil), m.errors...)
}

func (m *MockSurface) CaptureStates() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.captureStates...)
}

func (m *MockSurface) Ended() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ended...)
}

// MockCapture implements conversation.Capture. Wait blocks until Stop, Finish
// or context cancellation.
type MockCapture struct {
	PCM []byte
	Err error

	once     sync.Once
	doneCh   chan struct{}
	mu       sync.Mutex
	stops    int
	finished bool
}

func NewMockCapture(pcm []byte, err error) *MockCapture {
	return &MockCapture{PCM: pcm, Err: err, doneCh: make(chan struct{})}
}

func (m *MockCapture) Stop() {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
	m.once.Do(func() { close(m.doneCh) })
}

// Finish ends the capture as if the device stopped on its own.
func (m *MockCapture) Finish(pcm []byte, err error) {
	m.mu.Lock()
	m.PCM, m.Err = pcm, err
	m.mu.Unlock()
	m.once.Do(func() { close(m.doneCh) })
}

func (m *MockCapture) Wait() ([]byte, error) {
	<-m.doneCh
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished {
		return nil, fmt.Errorf("capture already consumed")
	}
	m.finished = true
	return m.PCM, m.Err
}

func (m *MockCapture) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// MockCapturer implements conversation.Capturer. Each call hands out a fresh
// MockCapture built from PCM and WaitError.
type MockCapturer struct {
	PCM          []byte
	WaitError    error
	CaptureError error

	mu       sync.Mutex
	captures []*MockCapture
}

func NewMockCapturer(pcm []byte) *MockCapturer {
	return &MockCapturer{PCM: pcm}
}

func (m *MockCapturer) Capture(ctx context.Context) (conversation.Capture, error) {
	if m.CaptureError != nil {
		return nil, m.CaptureError
	}
	c := NewMockCapture(m.PCM, m.WaitError)
	go func() {
		select {
		case <-ctx.Done():
			c.Stop()
		case <-c.doneCh:
		}
	}()
	m.mu.Lock()
	m.captures = append(m.captures, c)
	m.mu.Unlock()
	return c, nil
}

func (m *MockCapturer) Captures() []*MockCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockCapture(nil), m.captures...)
}

// MockRecognizer implements conversation.Recognizer.
type MockRecognizer struct {
	TranscribeFunc func(ctx context.Context, pcm []byte) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *MockRecognizer) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, pcm)
	}
	return "mock transcription", nil
}

func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SpokenText is one Speak call seen by MockVoice.
type SpokenText struct {
	Text       string
	Generation uint64
}

// MockVoice implements conversation.Voice. With AutoComplete every utterance
// finishes immediately with SpeakError; otherwise the test drives results with
// Complete.
type MockVoice struct {
	AutoComplete bool
	SpeakError   error

	mu      sync.Mutex
	spoken  []SpokenText
	pending map[uint64]chan error
	stops   int
}

func NewMockVoice(autoComplete bool) *MockVoice {
	return &MockVoice{AutoComplete: autoComplete, pending: make(map[uint64]chan error)}
}

func (m *MockVoice) Speak(ctx context.Context, text string, generation uint64) <-chan error {
	out := make(chan error, 1)
	in := make(chan error, 1)

	m.mu.Lock()
	m.spoken = append(m.spoken, SpokenText{Text: text, Generation: generation})
	auto, speakErr := m.AutoComplete, m.SpeakError
	if !auto {
		m.pending[generation] = in
	}
	m.mu.Unlock()

	if auto {
		in <- speakErr
	}

	go func() {
		defer close(out)
		select {
		case err := <-in:
			out <- err
		case <-ctx.Done():
			out <- ctx.Err()
		}
	}()
	return out
}

// Complete delivers the result for a generation. It reports false if the
// generation was never spoken or was already completed.
func (m *MockVoice) Complete(generation uint64, err error) bool {
	m.mu.Lock()
	ch, ok := m.pending[generation]
	delete(m.pending, generation)
	m.mu.Unlock()
	if !ok {
		return false
	}
	ch <- err
	return true
}

func (m *MockVoice) Stop() {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
}

func (m *MockVoice) Spoken() []SpokenText {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SpokenText(nil), m.spoken...)
}

func (m *MockVoice) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// MockGenerator implements conversation.RecordGenerator. When Release is set,
// Generate blocks until a value is received from it.
type MockGenerator struct {
	Document string
	Err      error
	Release  chan struct{}

	mu       sync.Mutex
	requests []conversation.RecordRequest
}

func NewMockGenerator(document string) *MockGenerator {
	return &MockGenerator{Document: document}
}

func (m *MockGenerator) Generate(ctx context.Context, req conversation.RecordRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	release := m.Release
	m.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.mu.Lock()
	doc, err := m.Document, m.Err
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	return doc, nil
}

func (m *MockGenerator) SetResult(document string, err error) {
	m.mu.Lock()
	m.Document, m.Err = document, err
	m.mu.Unlock()
}

func (m *MockGenerator) Requests() []conversation.RecordRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]conversation.RecordRequest(nil), m.requests...)
}

// MockRecordSink implements conversation.RecordSink.
type MockRecordSink struct {
	Path string
	Err  error

	mu    sync.Mutex
	saved []string
}

func (m *MockRecordSink) SaveRecord(document string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.saved = append(m.saved, document)
	return m.Path, nil
}

func (m *MockRecordSink) Saved() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.saved...)
}
