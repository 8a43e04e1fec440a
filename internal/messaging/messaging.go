package messaging

import (
	"context"
	"time"
)

const (
	VoiceNoteQueue  = "voice_note_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

var queues = []string{VoiceNoteQueue}

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// VoiceNotePayload asks a worker to persist the transcript of a finished
// recording as a note. RecordingId is unique per recording, so delivering
// the same payload twice produces a single note.
type VoiceNotePayload struct {
	UserId          string    `json:"user_id"`
	RecordingId     string    `json:"recording_id"`
	Transcript      string    `json:"transcript"`
	AudioKey        string    `json:"audio_key"`
	DurationSeconds float64   `json:"duration_seconds"`
	RecordedAt      time.Time `json:"recorded_at"`
}

type Publisher interface {
	PublishVoiceNoteTask(ctx context.Context, payload VoiceNotePayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
