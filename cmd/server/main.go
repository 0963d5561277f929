package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"accidentdetector/internal/app"
)

func main() {
	configPath := "config.json"
	if value := os.Getenv("CONFIG_FILE"); value != "" {
		configPath = value
	}

	application, err := app.NewApp(configPath)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
