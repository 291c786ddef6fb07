package conversation

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures reported to the interaction surface.
type ErrorKind string

const (
	DeviceUnavailable      ErrorKind = "device_unavailable"
	CaptureIOError         ErrorKind = "capture_io_error"
	RecognitionFailed      ErrorKind = "recognition_failed"
	SynthesisFailed        ErrorKind = "synthesis_failed"
	RecordGenerationFailed ErrorKind = "record_generation_failed"
	AlreadyRecording       ErrorKind = "already_recording"
)

var (
	// ErrNoRecordPending is returned by ConfirmRecord and ReturnToConversation
	// when no generated record is waiting for a decision.
	ErrNoRecordPending = errors.New("no record awaiting confirmation")

	// ErrSessionClosed is returned once the coordinator has shut down.
	ErrSessionClosed = errors.New("session closed")

	// ErrNotStarted is returned when the coordinator is used before Start.
	ErrNotStarted = errors.New("session not started")

	// ErrNoSpeech is reported when recognition succeeds but yields no text.
	ErrNoSpeech = errors.New("no speech recognized")
)

// Error carries a failure kind together with its cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "conversation error"
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of err, or "" if err is not a conversation error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
