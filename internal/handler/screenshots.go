package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"accidentdetector/internal/dto"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/service/storage"
)

// GetScreenshotsHandler returns the stored accident screenshots, newest first.
func GetScreenshotsHandler(screenshots *storage.ScreenshotService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shots, err := screenshots.List()
		if err != nil {
			logger.Error("Error listing screenshots: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		data := dto.ScreenshotsData{
			Screenshots: shots,
			Directory:   screenshots.Dir(),
			Length:      len(shots),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewScreenshotHandler serves a single screenshot named by the "name" query parameter.
func ViewScreenshotHandler(screenshots *storage.ScreenshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Name parameter is required", http.StatusBadRequest)
			return
		}
		path, err := screenshots.Path(name)
		if errors.Is(err, storage.ErrInvalidName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// ClearScreenshotsHandler deletes every screenshot.
func ClearScreenshotsHandler(screenshots *storage.ScreenshotService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if _, err := screenshots.Clear(); err != nil {
			logger.Error("Error clearing screenshots: %v", err)
			http.Error(w, "Unable to clear screenshots", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
