package model

import (
	"fmt"
	"time"
)

// AccidentEvent is created once per playback session, the moment the detector latches.
type AccidentEvent struct {
	SessionID        string    `json:"session_id"`
	VideoIdentifier  string    `json:"video"`
	TimestampSeconds float64   `json:"timestamp_seconds"`
	Timestamp        string    `json:"timestamp"`
	ScreenshotPath   string    `json:"screenshot,omitempty"`
	DetectedAt       time.Time `json:"detected_at"`
}

// FormatTimestamp renders a playback position as mm:ss.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
