package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"accidentdetector/internal/config"
	"accidentdetector/internal/dto"
	"accidentdetector/internal/logger"

	"gocv.io/x/gocv"
)

const (
	screenshotPrefix = "accident_"
	screenshotExt    = ".jpg"
)

var (
	ErrEmptyFrame   = errors.New("frame is empty")
	ErrInvalidName  = errors.New("invalid screenshot name")
	ErrWriteFailure = errors.New("failed to write screenshot")
)

// ScreenshotService writes detection screenshots into a single directory.
// It assumes a single writer.
type ScreenshotService struct {
	dir    string
	logger *logger.Logger
}

// NewScreenshotService creates a service writing into config.ScreenshotDirectory.
func NewScreenshotService(config *config.Config, logger *logger.Logger) *ScreenshotService {
	return &ScreenshotService{
		dir:    config.ScreenshotDirectory,
		logger: logger,
	}
}

func (s *ScreenshotService) Dir() string {
	return s.dir
}

// Capture writes frame as accident_<video>_<timestamp>.jpg and returns its path.
func (s *ScreenshotService) Capture(frame gocv.Mat, videoIdentifier, timestamp string) (string, error) {
	if frame.Empty() {
		return "", ErrEmptyFrame
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := filepath.Join(s.dir, ScreenshotName(videoIdentifier, timestamp))
	if ok := gocv.IMWrite(path, frame); !ok {
		return "", fmt.Errorf("%w: %s", ErrWriteFailure, path)
	}

	s.logger.Info("Saved screenshot %s", path)
	return path, nil
}

// ScreenshotName builds the file name for a video and a playback timestamp.
func ScreenshotName(videoIdentifier, timestamp string) string {
	return fmt.Sprintf("%s%s_%s%s", screenshotPrefix, SanitizeName(videoIdentifier), SanitizeTimestamp(timestamp), screenshotExt)
}

// SanitizeName keeps letters, digits, spaces, dots and underscores, and trims
// trailing spaces. An empty result becomes "video".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if isAlnum(r) || r == ' ' || r == '.' || r == '_' {
			b.WriteRune(r)
		}
	}
	clean := strings.TrimRight(b.String(), " ")
	if clean == "" {
		return "video"
	}
	return clean
}

// SanitizeTimestamp maps ':' to '-' and drops anything outside letters,
// digits, '-', '_' and '.'.
func SanitizeTimestamp(timestamp string) string {
	var b strings.Builder
	for _, r := range timestamp {
		switch {
		case r == ':':
			b.WriteRune('-')
		case isAlnum(r) || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// List returns the screenshots in the directory, newest first.
func (s *ScreenshotService) List() ([]dto.ScreenshotInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []dto.ScreenshotInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot directory: %w", err)
	}

	shots := make([]dto.ScreenshotInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), screenshotPrefix) || filepath.Ext(entry.Name()) != screenshotExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warning("Failed to stat screenshot %s: %v", entry.Name(), err)
			continue
		}
		video, timestamp := parseScreenshotName(entry.Name())
		shots = append(shots, dto.ScreenshotInfo{
			Name:      entry.Name(),
			Video:     video,
			Timestamp: timestamp,
			Size:      info.Size(),
			SavedAt:   info.ModTime(),
		})
	}

	sort.Slice(shots, func(i, j int) bool {
		return shots[i].SavedAt.After(shots[j].SavedAt)
	})
	return shots, nil
}

// parseScreenshotName splits accident_<video>_<mm-ss>.jpg. The video part may
// itself contain underscores, so the timestamp is taken after the last one.
func parseScreenshotName(name string) (video, timestamp string) {
	base := strings.TrimSuffix(strings.TrimPrefix(name, screenshotPrefix), screenshotExt)
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return base, ""
	}
	return base[:idx], strings.ReplaceAll(base[idx+1:], "-", ":")
}

// Path resolves a screenshot name inside the directory, rejecting anything
// that is not a plain file name.
func (s *ScreenshotService) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsRune(name, 0) || strings.HasPrefix(name, "..") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// Clear removes every screenshot and returns how many were deleted.
func (s *ScreenshotService) Clear() (int, error) {
	shots, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, shot := range shots {
		if err := os.Remove(filepath.Join(s.dir, shot.Name)); err != nil && !os.IsNotExist(err) {
			s.logger.Error("Error deleting screenshot %s: %v", shot.Name, err)
			continue
		}
		removed++
	}
	s.logger.Info("Cleared %d screenshots from %s at %s", removed, s.dir, time.Now().Format(time.RFC3339))
	return removed, nil
}
