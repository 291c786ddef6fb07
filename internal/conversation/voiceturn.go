package conversation

// VoiceKind distinguishes microphone capture from speech playback.
type VoiceKind string

const (
	CaptureTurn  VoiceKind = "capture"
	PlaybackTurn VoiceKind = "playback"
)

type VoiceStatus int

const (
	Idle VoiceStatus = iota
	Active
	Cancelling
	Completed
	Failed
)

func (s VoiceStatus) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Cancelling:
		return "cancelling"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// VoiceTurn is one outstanding capture or playback operation.
// Generation is unique per kind and strictly increasing; completions carrying
// an older generation are discarded by the coordinator.
type VoiceTurn struct {
	Kind       VoiceKind
	Status     VoiceStatus
	Generation uint64
}

// advance moves the turn forward. Backward or repeated transitions are refused.
func (t *VoiceTurn) advance(to VoiceStatus) bool {
	ok := false
	switch t.Status {
	case Idle:
		ok = to == Active
	case Active:
		ok = to == Cancelling || to == Completed || to == Failed
	case Cancelling:
		ok = to == Completed || to == Failed
	}
	if ok {
		t.Status = to
	}
	return ok
}

// Terminal reports whether the turn has finished.
func (t VoiceTurn) Terminal() bool {
	return t.Status == Completed || t.Status == Failed
}
