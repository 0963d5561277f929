package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"accidentdetector/internal/app"
	"accidentdetector/internal/dto"
	"accidentdetector/internal/model"
	"accidentdetector/internal/service/display"
	"accidentdetector/internal/service/playback"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "detect",
		Usage: "Watch a video for accidents and send an email alert",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "video",
				Aliases:  []string{"i"},
				Usage:    "Video file to analyse (.mp4, .avi, .mov, .mkv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "JSON configuration file",
				Value:   "config.json",
			},
			&cli.BoolFlag{
				Name:    "window",
				Aliases: []string{"w"},
				Usage:   "Show the video; space pauses, s stops, q quits",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			video := cmd.String("video")
			if !playback.SupportedExtension(video) {
				return cli.Exit(fmt.Sprintf("unsupported video format: %s", video), 2)
			}
			if _, err := os.Stat(video); err != nil {
				return cli.Exit(fmt.Sprintf("video not found: %s", video), 2)
			}
			return run(ctx, video, cmd.String("config"), cmd.Bool("window"))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// statusPrinter echoes status changes on the terminal.
type statusPrinter struct{}

func (statusPrinter) OnStatus(status dto.StatusMessage) {
	fmt.Printf("[%s] %s\n", status.State, status.Status)
}

func run(ctx context.Context, video, configPath string, window bool) error {
	core, err := app.NewCore(configPath)
	if err != nil {
		return err
	}
	defer core.Close()

	opts := []playback.Option{playback.WithStatusListener(statusPrinter{})}

	var win *display.WindowService
	if window {
		win = display.NewWindowService("Accident Detector")
		defer win.Close()
		opts = append(opts, playback.WithRenderer(win), playback.WithStatusListener(win))
	}

	player := core.NewPlayer(opts...)
	defer player.Stop()

	player.Load(video)
	if err := player.Start(); err != nil {
		return err
	}

	if win == nil {
		ended := make(chan struct{})
		go func() {
			player.Wait()
			close(ended)
		}()
		select {
		case <-ended:
		case <-ctx.Done():
		}
		return nil
	}

	for ctx.Err() == nil {
		switch win.Show(max(core.Config.FrameDelayMs, 1)) {
		case display.ActionToggle:
			if player.State() == model.StatePlaying {
				player.Pause()
			} else if err := player.Start(); err != nil {
				core.Logger.Error("Failed to resume: %v", err)
			}
		case display.ActionStop:
			player.Stop()
		case display.ActionQuit:
			return nil
		}
	}
	return nil
}
