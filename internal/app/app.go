package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"accidentdetector/internal/config"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/route"
	"accidentdetector/internal/service/alert"
	"accidentdetector/internal/service/detector"
	"accidentdetector/internal/service/playback"
	"accidentdetector/internal/service/storage"
	"accidentdetector/internal/service/websocket"
)

// Core is the detection pipeline shared by the browser and desktop shells.
type Core struct {
	Config      *config.Config
	Logger      *logger.Logger
	Detector    *detector.AccidentDetector
	Screenshots *storage.ScreenshotService
	Alerts      *alert.AlertService
}

// NewCore loads the configuration at configPath and builds the pipeline.
func NewCore(configPath string) (*Core, error) {
	cfg := config.Load(configPath)

	l, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if cfg.Email.Recipient == "" || cfg.Email.Sender == "" {
		l.Warning("No alert sender or recipient configured; accident emails will fail")
	}

	return &Core{
		Config:      cfg,
		Logger:      l,
		Detector:    detector.NewAccidentDetector(cfg.Detection, l),
		Screenshots: storage.NewScreenshotService(cfg, l),
		Alerts:      alert.NewAlertService(cfg, l),
	}, nil
}

// NewPlayer builds a Player driving the core's detector.
func (c *Core) NewPlayer(opts ...playback.Option) *playback.Player {
	return playback.NewPlayer(c.Config, c.Detector, c.Screenshots, c.Alerts, c.Logger, opts...)
}

func (c *Core) Close() {
	if err := c.Detector.Close(); err != nil {
		c.Logger.Warning("Failed to release detector: %v", err)
	}
	c.Logger.Close()
}

// App is the browser shell: HTTP API, websocket viewers and one Player.
type App struct {
	*Core
	hubService *websocket.HubService
	player     *playback.Player
}

func NewApp(configPath string) (*App, error) {
	core, err := NewCore(configPath)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHubService(core.Config, core.Logger)
	player := core.NewPlayer(playback.WithRenderer(hub), playback.WithStatusListener(hub))

	return &App{
		Core:       core,
		hubService: hub,
		player:     player,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then stops playback.
func (a *App) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go a.hubService.Run(done)

	router := route.SetupRoutes(a.player, a.hubService, a.Screenshots, a.Config, a.Logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Port),
		Handler: router,
	}

	fmt.Printf("🚗 Accident Detector\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.Config.Port)
	fmt.Printf("🔑 Password: %s\n", a.Config.Password)
	fmt.Printf("📁 Screenshots: %s\n", a.Config.ScreenshotDirectory)
	fmt.Printf("📧 Alerts to: %s\n", a.Alerts.Recipient())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.player.Stop()
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down")
	a.player.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
