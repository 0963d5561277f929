package model

// DetectorState is a snapshot of the motion accumulator.
type DetectorState struct {
	HasPreviousFrame        bool `json:"has_previous_frame"`
	ConsecutiveMotionFrames int  `json:"consecutive_motion_frames"`
	Latched                 bool `json:"latched"`
}

type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StateLoaded
	StatePlaying
	StatePaused
	StateStopped
)

func (s PlaybackState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// MarshalText lets the state travel as its name in JSON payloads.
func (s PlaybackState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
