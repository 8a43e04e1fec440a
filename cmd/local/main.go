package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"playground-ai/cmd"
	"playground-ai/internal/config"
	"playground-ai/internal/database"
	"playground-ai/internal/messaging"
	"playground-ai/internal/storage"
	"playground-ai/internal/voice"
)

// Single process build: sqlite, blobs on disk and an in-memory queue
// drained by an in-process worker.
func main() {
	cmd.LoadEnvFile()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.LocalRoot, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.LocalRoot, "playground.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting playground", "root", cfg.LocalRoot, "port", cfg.APIPort)

	db, err := database.NewDatabase(filepath.Join(cfg.LocalRoot, "db", "playground.db"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	blobs := storage.NewLocalProvider(filepath.Join(cfg.LocalRoot, "storage"))
	if err := blobs.CreateBucket(context.Background(), cfg.UploadBucket); err != nil {
		log.Fatalf("Failed to create bucket %s: %v", cfg.UploadBucket, err)
	}

	queue := messaging.NewInMemoryQueue()

	worker := messaging.NewWorker(queue, cfg.WorkerConcurrency, slog.Default())
	worker.Handle(messaging.VoiceNoteQueue, voice.NoteTaskHandler(db, slog.Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	server := &http.Server{
		Addr: ":" + cfg.APIPort,
		Handler: cmd.Server{
			DB:        db,
			Blobs:     blobs,
			Publisher: queue,
			Config:    cfg,
		}.Handler(),
	}

	cmd.ListenAndServe(server, func() {
		slog.Info("shutting down worker")
		cancel()
		wg.Wait()
		queue.Close()
	})
}
