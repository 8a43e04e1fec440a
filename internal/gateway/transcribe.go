package gateway

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	MaxAudioBytes             = 25 * 1024 * 1024
	DefaultTranscriptionModel = "whisper-1"
)

// Transcriber turns an audio payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type WhisperConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Whisper calls the OpenAI audio transcription endpoint.
type Whisper struct {
	client *resty.Client
	model  string
	logger *slog.Logger
}

func NewWhisper(cfg WhisperConfig, logger *slog.Logger) *Whisper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultTranscriptionModel
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetTimeout(2 * time.Minute)

	return &Whisper{client: client, model: cfg.Model, logger: logger.With("component", "whisper_gateway")}
}

func (w *Whisper) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	text, err := w.transcribe(ctx, audio, filename)
	observe("transcription", err)
	return text, err
}

func (w *Whisper) transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", InvalidRequest("No audio file provided")
	}
	if len(audio) > MaxAudioBytes {
		return "", InvalidRequest("Audio file too large. Maximum size is 25MB.")
	}
	if filename == "" {
		filename = "recording.webm"
	}

	w.logger.Info("sending audio for transcription", "bytes", len(audio))

	res, err := w.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(audio)).
		SetMultipartFormData(map[string]string{
			"model":           w.model,
			"language":        "en",
			"response_format": "text",
			"temperature":     "0",
		}).
		Post("/audio/transcriptions")
	if err != nil {
		w.logger.Error("transcription request failed", "error", err)
		return "", newError(FeatureTranscription, ErrorUnknown, fmt.Errorf("transcription request failed: %w", err))
	}

	if !res.IsSuccess() {
		body := res.String()
		kind := classifyText(res.StatusCode(), body)
		w.logger.Error("transcription failed", "status", res.StatusCode(), "kind", kind, "body", body)
		return "", newError(FeatureTranscription, kind, fmt.Errorf("transcription returned status %d: %s", res.StatusCode(), body))
	}

	return strings.TrimSpace(res.String()), nil
}
