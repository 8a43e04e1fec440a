package main

import (
	"context"
	"log"
	"net/http"

	"playground-ai/cmd"
	"playground-ai/internal/config"
	"playground-ai/internal/database"
	"playground-ai/internal/messaging"
	"playground-ai/internal/storage"
)

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	blobs, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	if err := blobs.CreateBucket(context.Background(), cfg.UploadBucket); err != nil {
		log.Fatalf("Failed to create bucket %s: %v", cfg.UploadBucket, err)
	}

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	server := &http.Server{
		Addr: ":" + cfg.APIPort,
		Handler: cmd.Server{
			DB:        db,
			Blobs:     blobs,
			Publisher: publisher,
			Config:    cfg,
		}.Handler(),
	}

	cmd.ListenAndServe(server, nil)
}
