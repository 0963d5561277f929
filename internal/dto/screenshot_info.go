package dto

import (
	"encoding/json"
	"time"
)

// ScreenshotInfo describes a stored detection screenshot.
type ScreenshotInfo struct {
	Name      string    `json:"name"`
	Video     string    `json:"video"`
	Timestamp string    `json:"timestamp"` // playback position, mm:ss
	Size      int64     `json:"size"`
	SavedAt   time.Time `json:"savedAt"`
}

// MarshalJSON formats SavedAt as date and time-of-day for the gallery.
func (s ScreenshotInfo) MarshalJSON() ([]byte, error) {
	type Alias ScreenshotInfo
	return json.Marshal(&struct {
		SavedAt string `json:"savedAt"`
		Alias
	}{
		SavedAt: s.SavedAt.Format("02-01-2006 15:04"),
		Alias:   (Alias)(s),
	})
}

// ScreenshotsData is the gallery response payload.
type ScreenshotsData struct {
	Screenshots []ScreenshotInfo `json:"screenshots"`
	Directory   string           `json:"directory"`
	Length      int              `json:"length"`
}
