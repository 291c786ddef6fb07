package notify

import (
	"fmt"
	"log"
	"os/exec"
)

const appName = "Medintake"

type Notifier interface {
	RecordingChanged(on bool)
	RecordReady(path string)
	Error(msg string)
}

// New returns the notifier for a notifications.type value. Unknown types
// fall back to Nop.
func New(typ string) Notifier {
	switch typ {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

func recordingTitle(on bool) string {
	if on {
		return "Listening"
	}
	return "Stopped Listening"
}

type Desktop struct{}

func (Desktop) RecordingChanged(on bool) {
	send("-a", appName, fmt.Sprintf("%s: %s", appName, recordingTitle(on)))
}

func (Desktop) RecordReady(path string) {
	send("-a", appName, appName+": Record Ready", path)
}

func (Desktop) Error(msg string) {
	send("-a", appName, "-u", "critical", appName+": Error", msg)
}

func send(args ...string) {
	cmd := exec.Command("notify-send", args...)
	if err := cmd.Run(); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

// Log writes notifications to the standard logger.
type Log struct{}

func (Log) RecordingChanged(on bool) {
	log.Printf("%s: %s", appName, recordingTitle(on))
}

func (Log) RecordReady(path string) {
	log.Printf("%s: Record Ready - %s", appName, path)
}

func (Log) Error(msg string) {
	log.Printf("%s: Error - %s", appName, msg)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingChanged(on bool) {}
func (Nop) RecordReady(path string)  {}
func (Nop) Error(msg string)         {}
