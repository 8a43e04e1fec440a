package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"playground-ai/internal/database"
	"playground-ai/internal/messaging"
	"playground-ai/internal/storage"

	"gorm.io/gorm"
)

const convertTimeout = 30 * time.Second

// NoteConverter subscribes to a pipeline and queues one voice note task
// per transcribed recording. The audio is uploaded to the blob store first
// when one is configured.
type NoteConverter struct {
	userId    string
	publisher messaging.Publisher
	blobs     storage.Provider
	bucket    string
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewNoteConverter(userId string, publisher messaging.Publisher, blobs storage.Provider, bucket string, logger *slog.Logger) *NoteConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteConverter{
		userId:    userId,
		publisher: publisher,
		blobs:     blobs,
		bucket:    bucket,
		logger:    logger.With("component", "note_converter", "user_id", userId),
		seen:      make(map[string]struct{}),
	}
}

// OnRecording is the pipeline subscriber.
func (c *NoteConverter) OnRecording(rec Recording) {
	ctx, cancel := context.WithTimeout(context.Background(), convertTimeout)
	defer cancel()

	if err := c.Convert(ctx, rec); err != nil {
		c.logger.Error("error converting recording to note", "recording_id", rec.ID, "error", err)
	}
}

// Convert queues a note for rec unless rec has no usable transcript or was
// already converted. A failed attempt may be retried.
func (c *NoteConverter) Convert(ctx context.Context, rec Recording) error {
	if !rec.Transcribed() {
		return nil
	}

	c.mu.Lock()
	if _, ok := c.seen[rec.ID]; ok {
		c.mu.Unlock()
		return nil
	}
	c.seen[rec.ID] = struct{}{}
	c.mu.Unlock()

	var audioKey string
	if c.blobs != nil && len(rec.Audio) > 0 {
		key := storage.VoiceKey(c.userId, rec.ID)
		if err := c.blobs.PutObject(ctx, c.bucket, key, bytes.NewReader(rec.Audio)); err != nil {
			c.logger.Warn("error uploading voice audio, note will have no audio", "recording_id", rec.ID, "error", err)
		} else {
			audioKey = key
		}
	}

	err := c.publisher.PublishVoiceNoteTask(ctx, messaging.VoiceNotePayload{
		UserId:          c.userId,
		RecordingId:     rec.ID,
		Transcript:      rec.Transcript,
		AudioKey:        audioKey,
		DurationSeconds: rec.DurationSeconds,
		RecordedAt:      rec.Timestamp,
	})
	if err != nil {
		c.mu.Lock()
		delete(c.seen, rec.ID)
		c.mu.Unlock()
		return fmt.Errorf("error publishing voice note task: %w", err)
	}

	return nil
}

// NoteTaskHandler persists voice note tasks. Redelivered tasks do not
// create duplicate notes.
func NoteTaskHandler(db *gorm.DB, logger *slog.Logger) messaging.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "voice_note_handler")

	return func(ctx context.Context, payload []byte) error {
		var task messaging.VoiceNotePayload
		if err := json.Unmarshal(payload, &task); err != nil {
			return fmt.Errorf("%w: %v", messaging.ErrMalformedPayload, err)
		}
		if task.UserId == "" || task.RecordingId == "" {
			return fmt.Errorf("%w: user id and recording id are required", messaging.ErrMalformedPayload)
		}
		if !(Recording{Transcript: task.Transcript}).Transcribed() {
			logger.Info("skipping recording without transcript", "recording_id", task.RecordingId)
			return nil
		}

		note, created, err := database.CreateVoiceNote(ctx, db, task.UserId, task.RecordingId, task.Transcript, task.AudioKey, task.RecordedAt)
		if err != nil {
			return err
		}
		if !created {
			logger.Info("voice note already exists", "recording_id", task.RecordingId, "note_id", note.Id)
			return nil
		}

		logger.Info("created voice note", "recording_id", task.RecordingId, "note_id", note.Id, "user_id", task.UserId)

		if err := database.RefreshUserStats(ctx, db, task.UserId); err != nil {
			logger.Warn("error refreshing user stats", "user_id", task.UserId, "error", err)
		}
		return nil
	}
}
