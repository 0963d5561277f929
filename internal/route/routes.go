package route

import (
	"net/http"
	"os"
	"path/filepath"

	"accidentdetector/internal/config"
	"accidentdetector/internal/handler"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/middleware"
	"accidentdetector/internal/service/playback"
	"accidentdetector/internal/service/storage"
	"accidentdetector/internal/service/websocket"
)

var logEndpoints = map[string]logger.Level{
	"/logs/info":    logger.LevelInfo,
	"/logs/warning": logger.LevelWarning,
	"/logs/error":   logger.LevelError,
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(player *playback.Player, hub *websocket.HubService, screenshots *storage.ScreenshotService,
	cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// Video control
	mux.HandleFunc("/api/video/upload", handler.UploadVideoHandler(player, cfg, logger))
	mux.HandleFunc("/api/video/start", handler.StartVideoHandler(player, logger))
	mux.HandleFunc("/api/video/pause", handler.PauseVideoHandler(player, logger))
	mux.HandleFunc("/api/video/stop", handler.StopVideoHandler(player, logger))
	mux.HandleFunc("/api/video/status", handler.VideoStatusHandler(player, logger))
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, logger))

	// Screenshots
	mux.HandleFunc("/api/screenshots", handler.GetScreenshotsHandler(screenshots, logger))
	mux.HandleFunc("/api/screenshots/view", handler.ViewScreenshotHandler(screenshots))
	mux.HandleFunc("/api/screenshots/clear", handler.ClearScreenshotsHandler(screenshots, logger))

	// Log endpoints
	for path, level := range logEndpoints {
		mux.HandleFunc(path, handler.ShowLogsHandler(logger, level))
		mux.HandleFunc(path+"/clear", handler.ClearLogsHandler(logger, level))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /login -> /static/login.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	return middleware.AuthMiddleware(mux)
}
