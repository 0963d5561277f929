package dto

import "accidentdetector/internal/model"

const (
	MessageTypeFrame  = "frame"
	MessageTypeStatus = "status"
)

// FrameMessage carries one rendered frame to viewers.
type FrameMessage struct {
	Type  string `json:"type"`
	Video string `json:"video"`
	Image string `json:"image"` // base64 JPEG
}

// StatusMessage reflects the playback shell state. Processing drives the
// indeterminate progress indicator.
type StatusMessage struct {
	Type       string               `json:"type"`
	State      model.PlaybackState  `json:"state"`
	Status     string               `json:"status"`
	Processing bool                 `json:"processing"`
	Video      string               `json:"video,omitempty"`
	Recipient  string               `json:"recipient,omitempty"`
	Event      *model.AccidentEvent `json:"event,omitempty"`
}
