package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// Dependency is an external program the session shells out to
type Dependency struct {
	Binary      string
	VersionArgs []string
	Purpose     string
	Optional    bool
}

var (
	PwRecord = Dependency{Binary: "pw-record", VersionArgs: []string{"--version"}, Purpose: "microphone capture"}
	PwCli    = Dependency{Binary: "pw-cli", VersionArgs: []string{"--version"}, Purpose: "PipeWire availability check"}
	PwPlay   = Dependency{Binary: "pw-play", VersionArgs: []string{"--version"}, Purpose: "speech playback"}

	NotifySend = Dependency{Binary: "notify-send", VersionArgs: []string{"--version"}, Purpose: "desktop notifications", Optional: true}
)

// Result pairs a dependency with its probed status
type Result struct {
	Dependency
	Status
}

// Missing reports a required dependency that is not installed
func (r Result) Missing() bool {
	return !r.Optional && !r.Installed
}

// ForSession lists the programs a session needs with the given features.
func ForSession(speech, desktopNotifications bool) []Dependency {
	list := []Dependency{PwRecord, PwCli}
	if speech {
		list = append(list, PwPlay)
	}
	if desktopNotifications {
		list = append(list, NotifySend)
	}
	return list
}

// Check looks d up in PATH and returns its status
func Check(d Dependency) Status {
	path, err := exec.LookPath(d.Binary)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	// first line of the version output
	cmd := exec.Command(path, d.VersionArgs...)
	output, err := cmd.Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}

func CheckAll(list []Dependency) []Result {
	results := make([]Result, len(list))
	for i, d := range list {
		results[i] = Result{Dependency: d, Status: Check(d)}
	}
	return results
}
