package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00"},
		{5.9, "00:05"},
		{61, "01:01"},
		{754.2, "12:34"},
		{-3, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.expected {
			t.Errorf("FormatTimestamp(%v) = %s, expected %s", tt.seconds, got, tt.expected)
		}
	}
}

func TestPlaybackState_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		State PlaybackState `json:"state"`
	}{StatePaused})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"paused"`) {
		t.Errorf("Expected state name in JSON, got %s", data)
	}
}
