package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"accidentdetector/internal/config"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/service/playback"
	"accidentdetector/internal/service/storage"
)

// MaxUploadSize bounds a single uploaded video.
const MaxUploadSize = 2 << 30

// UploadVideoHandler handles POST /api/video/upload. The multipart field
// "video" is stored in the upload directory and loaded into the player.
func UploadVideoHandler(player *playback.Player, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		file, header, err := r.FormFile("video")
		if err != nil {
			http.Error(w, "Video file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if !playback.SupportedExtension(header.Filename) {
			http.Error(w, playback.ErrUnsupportedVideo.Error(), http.StatusUnsupportedMediaType)
			return
		}

		tmp, err := saveUpload(cfg.UploadDirectory, file)
		if err != nil {
			logger.Error("Failed to store upload %s: %v", header.Filename, err)
			http.Error(w, "Unable to store video", http.StatusInternalServerError)
			return
		}

		// the current session may still be decoding a file of the same name
		player.Stop()

		path := uploadPath(cfg.UploadDirectory, header.Filename)
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			logger.Error("Failed to store upload %s: %v", header.Filename, err)
			http.Error(w, "Unable to store video", http.StatusInternalServerError)
			return
		}

		player.Load(path)
		writeStatus(w, player, logger)
	}
}

// saveUpload copies an uploaded file into a temporary file in dir and
// returns its path.
func saveUpload(dir string, src io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write %s: %w", dst.Name(), err)
	}
	return dst.Name(), nil
}

// uploadPath is the final location of an uploaded file under a sanitized name.
func uploadPath(dir, filename string) string {
	name := storage.SanitizeName(filepath.Base(filename))
	if !playback.SupportedExtension(name) {
		name += filepath.Ext(filename)
	}
	return filepath.Join(dir, name)
}

// StartVideoHandler handles POST /api/video/start. Start also resumes a
// paused video.
func StartVideoHandler(player *playback.Player, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := player.Start(); err != nil {
			switch {
			case errors.Is(err, playback.ErrNoVideo):
				http.Error(w, "Please upload a video first", http.StatusConflict)
			case errors.Is(err, playback.ErrOpenFailed):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				logger.Error("Failed to start playback: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
			return
		}
		writeStatus(w, player, logger)
	}
}

// PauseVideoHandler handles POST /api/video/pause.
func PauseVideoHandler(player *playback.Player, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := player.Pause(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeStatus(w, player, logger)
	}
}

// StopVideoHandler handles POST /api/video/stop.
func StopVideoHandler(player *playback.Player, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		player.Stop()
		writeStatus(w, player, logger)
	}
}

// VideoStatusHandler handles GET /api/video/status.
func VideoStatusHandler(player *playback.Player, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, player, logger)
	}
}

func writeStatus(w http.ResponseWriter, player *playback.Player, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(player.Status()); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
