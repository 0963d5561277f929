package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"accidentdetector/internal/config"
	"accidentdetector/internal/logger"

	"gocv.io/x/gocv"
)

func setupService(t *testing.T) (*ScreenshotService, string) {
	t.Helper()

	l, err := logger.New(t.TempDir(), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	dir := filepath.Join(t.TempDir(), "screenshots")
	return NewScreenshotService(&config.Config{ScreenshotDirectory: dir}, l), dir
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"crash.mp4", "crash.mp4"},
		{"my video_01.avi", "my video_01.avi"},
		{"../../etc/passwd", "....etcpasswd"},
		{"cam:1/2*?.mkv  ", "cam12.mkv"},
		{"trailing   ", "trailing"},
		{"wypadek-żółw.mov", "wypadekw.mov"},
		{"///", "video"},
		{"", "video"},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.input); got != tt.expected {
			t.Errorf("SanitizeName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"01:23", "01-23"},
		{"00:05.5", "00-05.5"},
		{"12:00 / x", "12-00x"},
	}

	for _, tt := range tests {
		if got := SanitizeTimestamp(tt.input); got != tt.expected {
			t.Errorf("SanitizeTimestamp(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestScreenshotName_PermittedCharacters(t *testing.T) {
	inputs := [][2]string{
		{"a/b\\c:d.mp4", "00:07"},
		{"<script>.avi", "10:59"},
		{"normal name.mov", "01:00"},
	}

	for _, in := range inputs {
		name := ScreenshotName(in[0], in[1])
		for _, r := range name {
			if !(isAlnum(r) || strings.ContainsRune(" ._-", r)) {
				t.Errorf("ScreenshotName(%q, %q) = %q contains %q", in[0], in[1], name, r)
			}
		}
		if name != ScreenshotName(in[0], in[1]) {
			t.Errorf("ScreenshotName is not deterministic for %q", in[0])
		}
	}

	if got := ScreenshotName("crash.mp4", "01:02"); got != "accident_crash.mp4_01-02.jpg" {
		t.Errorf("Unexpected name %q", got)
	}
}

func TestCapture_WritesFile(t *testing.T) {
	s, dir := setupService(t)

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	path, err := s.Capture(frame, "road cam.mp4", "00:42")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("Expected screenshot in %s, got %s", dir, path)
	}
	if filepath.Base(path) != "accident_road cam.mp4_00-42.jpg" {
		t.Errorf("Unexpected file name %s", filepath.Base(path))
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected non-empty screenshot on disk, err=%v", err)
	}
}

func TestCapture_EmptyFrame(t *testing.T) {
	s, _ := setupService(t)

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := s.Capture(empty, "clip.mp4", "00:01"); err != ErrEmptyFrame {
		t.Errorf("Expected ErrEmptyFrame, got %v", err)
	}
}

func TestList_AndClear(t *testing.T) {
	s, dir := setupService(t)

	if shots, err := s.List(); err != nil || len(shots) != 0 {
		t.Fatalf("Expected empty list for missing dir, got %v, %v", shots, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, name := range []string{"accident_my_clip.mp4_01-02.jpg", "notes.txt", "accident_other.avi_00-10.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	shots, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(shots) != 2 {
		t.Fatalf("Expected 2 screenshots, got %d", len(shots))
	}
	for _, shot := range shots {
		if shot.Name == "accident_my_clip.mp4_01-02.jpg" {
			if shot.Video != "my_clip.mp4" || shot.Timestamp != "01:02" {
				t.Errorf("Unexpected parse: video=%q timestamp=%q", shot.Video, shot.Timestamp)
			}
		}
	}

	removed, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("Clear must leave unrelated files alone")
	}
}

func TestPath_RejectsTraversal(t *testing.T) {
	s, dir := setupService(t)

	invalid := []string{"", "../secret.jpg", "/etc/passwd", "a/b.jpg", "file\x00name.jpg", ".."}
	for _, name := range invalid {
		if _, err := s.Path(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}

	path, err := s.Path("accident_clip.mp4_00-01.jpg")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if path != filepath.Join(dir, "accident_clip.mp4_00-01.jpg") {
		t.Errorf("Unexpected path %s", path)
	}
}
