package route

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"accidentdetector/internal/config"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/middleware"
	"accidentdetector/internal/model"
	"accidentdetector/internal/service/playback"
	"accidentdetector/internal/service/storage"
	"accidentdetector/internal/service/websocket"

	"gocv.io/x/gocv"
)

type idleDetector struct{}

func (idleDetector) Observe(frame gocv.Mat) (bool, error) { return false, nil }
func (idleDetector) Reset()                               {}

type silentAlerts struct{}

func (silentAlerts) SendAlert(ctx context.Context, event model.AccidentEvent) bool { return false }
func (silentAlerts) Recipient() string                                             { return "" }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		Password:            "secret",
		ScreenshotDirectory: filepath.Join(root, "screenshots"),
		UploadDirectory:     filepath.Join(root, "uploads"),
		LogDirectory:        filepath.Join(root, "logs"),
		StaticDirectory:     filepath.Join(root, "static"),
	}
	if err := os.MkdirAll(cfg.StaticDirectory, 0755); err != nil {
		t.Fatalf("Failed to create static dir: %v", err)
	}
	for name, content := range map[string]string{"index.html": "<h1>index</h1>", "login.html": "<h1>login</h1>"} {
		if err := os.WriteFile(filepath.Join(cfg.StaticDirectory, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	l, err := logger.New(cfg.LogDirectory, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	screenshots := storage.NewScreenshotService(cfg, l)
	hub := websocket.NewHubService(cfg, l)
	player := playback.NewPlayer(cfg, idleDetector{}, screenshots, silentAlerts{}, l)

	return SetupRoutes(player, hub, screenshots, cfg, l)
}

func TestSetupRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name     string
		path     string
		auth     bool
		wantCode int
		wantBody string
	}{
		{"login page is public", "/login", false, http.StatusOK, "login"},
		{"index needs login", "/", false, http.StatusSeeOther, ""},
		{"api needs login", "/api/video/status", false, http.StatusUnauthorized, ""},
		{"index", "/", true, http.StatusOK, "index"},
		{"status", "/api/video/status", true, http.StatusOK, `"state":"idle"`},
		{"screenshots", "/api/screenshots", true, http.StatusOK, `"length":0`},
		{"unknown page", "/settings", true, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth {
				req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: "true"})
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("Expected body to contain %q, got %q", tt.wantBody, rec.Body.String())
			}
		})
	}
}
