package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"playground-ai/cmd"
	"playground-ai/internal/config"
	"playground-ai/internal/database"
	"playground-ai/internal/messaging"
	"playground-ai/internal/voice"
)

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer receiver.Close()

	logger := slog.Default()

	worker := messaging.NewWorker(receiver, cfg.WorkerConcurrency, logger)
	worker.Handle(messaging.VoiceNoteQueue, voice.NoteTaskHandler(db, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Worker started. Waiting for tasks. Press Ctrl+C to exit.")
	worker.Run(ctx)

	log.Println("Worker process stopped.")
}
