package transcriber

import (
	"errors"
	"fmt"
)

// ErrRecognitionFailed wraps every remote or decoding failure of a recognizer.
var ErrRecognitionFailed = errors.New("speech recognition failed")

// RecognitionError carries the remote status of a failed recognition.
type RecognitionError struct {
	Code    int
	Message string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error %d: %s", e.Code, e.Message)
}

func (e *RecognitionError) Unwrap() error {
	return ErrRecognitionFailed
}
