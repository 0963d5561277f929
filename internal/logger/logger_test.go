package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	l, err := New(t.TempDir(), &stdout, &stderr)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, &stdout, &stderr
}

func TestLogger_WritesLevelsToFilesAndConsole(t *testing.T) {
	l, stdout, stderr := newTestLogger(t)

	l.Info("loaded %s", "clip.mp4")
	l.Warning("slow frame %d", 7)
	l.Error("send failed: %v", "timeout")

	if !strings.Contains(stdout.String(), "loaded clip.mp4") || !strings.Contains(stdout.String(), "slow frame 7") {
		t.Errorf("Expected info and warning on stdout, got: %s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "send failed: timeout") {
		t.Errorf("Expected error on stderr, got: %s", stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(l.Dir(), LevelError.FileName()))
	if err != nil {
		t.Fatalf("Failed to read error log: %v", err)
	}
	if !strings.Contains(string(data), "send failed") {
		t.Errorf("Expected error.log to contain entry, got: %s", data)
	}
	if !strings.Contains(string(data), "logger_test.go") {
		t.Errorf("Expected caller file in entry, got: %s", data)
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	l, _, _ := newTestLogger(t)

	l.Info("first entry")
	if err := l.CleanLogs(LevelInfo); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(l.Dir(), LevelInfo.FileName()))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty info.log, got %d bytes", info.Size())
	}
}

func TestLevel_FileName(t *testing.T) {
	tests := map[Level]string{
		LevelInfo:    "info.log",
		LevelWarning: "warning.log",
		LevelError:   "error.log",
	}
	for level, want := range tests {
		if got := level.FileName(); got != want {
			t.Errorf("Level(%d).FileName() = %s, expected %s", level, got, want)
		}
	}
}
