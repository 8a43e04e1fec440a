package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"playground-ai/internal/gateway"

	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	default:
		return "idle"
	}
}

// Transcripts stored on recordings that could not be transcribed.
const (
	TranscriptionFailed = "Transcription failed"
	NoTranscript        = "Could not transcribe audio"
)

const (
	DeviceUnavailableMessage  = "Failed to access microphone. Please check permissions."
	TranscriptionErrorMessage = "Failed to transcribe audio. The recording was saved without transcription."
)

const audioFilename = "recording.webm"

var (
	ErrDeviceUnavailable = errors.New(DeviceUnavailableMessage)
	ErrNotRecording      = errors.New("not recording")
)

// Device hands out audio inputs. Open fails when the microphone cannot be
// accessed.
type Device interface {
	Open(ctx context.Context) (Input, error)
}

// Input delivers audio chunks until it is closed. Closing an input closes
// its chunk channel.
type Input interface {
	Chunks() <-chan []byte
	Close() error
}

type Recording struct {
	ID              string    `json:"id"`
	Audio           []byte    `json:"-"`
	Transcript      string    `json:"transcript"`
	DurationSeconds float64   `json:"duration"`
	Timestamp       time.Time `json:"timestamp"`
}

// Transcribed reports whether the recording carries real transcript text
// rather than one of the placeholder transcripts.
func (r Recording) Transcribed() bool {
	text := strings.TrimSpace(r.Transcript)
	return text != "" && text != TranscriptionFailed && text != NoTranscript
}

type Pipeline struct {
	device      Device
	transcriber gateway.Transcriber
	logger      *slog.Logger
	now         func() time.Time

	mu          sync.Mutex
	state       State
	err         string
	input       Input
	collected   chan []byte
	startedAt   time.Time
	recordings  []Recording
	subscribers map[int]func(Recording)
	nextSubId   int
}

type PipelineOption func(*Pipeline)

func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

func NewPipeline(device Device, transcriber gateway.Transcriber, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		device:      device,
		transcriber: transcriber,
		logger:      slog.Default(),
		now:         time.Now,
		subscribers: make(map[int]func(Recording)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "voice_pipeline")
	return p
}

// StartRecording opens the device and starts buffering audio. It does
// nothing unless the pipeline is idle.
func (p *Pipeline) StartRecording(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return nil
	}

	p.err = ""

	input, err := p.device.Open(ctx)
	if err != nil {
		p.logger.Error("error opening audio device", "error", err)
		p.err = DeviceUnavailableMessage
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	p.input = input
	p.collected = make(chan []byte, 1)
	p.startedAt = p.now()
	p.state = StateRecording

	go collect(input.Chunks(), p.collected)

	return nil
}

func collect(chunks <-chan []byte, out chan<- []byte) {
	var buf bytes.Buffer
	for chunk := range chunks {
		if len(chunk) > 0 {
			buf.Write(chunk)
		}
	}
	out <- buf.Bytes()
}

// StopRecording releases the device and transcribes the buffered audio in
// the background. The returned channel yields the resulting recording once
// it has been added to the list and delivered to subscribers. The
// transcription is not cancelled when ctx is.
func (p *Pipeline) StopRecording(ctx context.Context) (<-chan Recording, error) {
	p.mu.Lock()
	if p.state != StateRecording {
		p.mu.Unlock()
		return nil, ErrNotRecording
	}

	if err := p.input.Close(); err != nil {
		p.logger.Warn("error releasing audio device", "error", err)
	}
	audio := <-p.collected
	duration := p.now().Sub(p.startedAt)

	p.input = nil
	p.collected = nil
	p.state = StateTranscribing
	p.mu.Unlock()

	out := make(chan Recording, 1)
	go p.transcribe(context.WithoutCancel(ctx), audio, duration, out)

	return out, nil
}

func (p *Pipeline) transcribe(ctx context.Context, audio []byte, duration time.Duration, out chan<- Recording) {
	defer close(out)

	text, err := p.transcriber.Transcribe(ctx, audio, audioFilename)

	rec := Recording{
		ID:              uuid.NewString(),
		Audio:           audio,
		Transcript:      strings.TrimSpace(text),
		DurationSeconds: duration.Seconds(),
		Timestamp:       p.now(),
	}

	p.mu.Lock()
	if err != nil {
		p.logger.Error("transcription failed", "bytes", len(audio), "error", err)
		p.err = TranscriptionErrorMessage
		rec.Transcript = TranscriptionFailed
	} else if rec.Transcript == "" {
		rec.Transcript = NoTranscript
	}

	p.recordings = append([]Recording{rec}, p.recordings...)
	p.state = StateIdle

	subscribers := make([]func(Recording), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subscribers = append(subscribers, fn)
	}
	p.mu.Unlock()

	for _, fn := range subscribers {
		fn(rec)
	}

	out <- rec
}

// Subscribe registers fn to be called with every new recording. The
// returned function removes the subscription.
func (p *Pipeline) Subscribe(fn func(Recording)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubId
	p.nextSubId++
	p.subscribers[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Err() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Recordings returns the recordings newest first.
func (p *Pipeline) Recordings() []Recording {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Recording(nil), p.recordings...)
}

func (p *Pipeline) Recording(id string) (Recording, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.recordings {
		if r.ID == id {
			return r, true
		}
	}
	return Recording{}, false
}

func (p *Pipeline) DeleteRecording(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.recordings {
		if r.ID == id {
			p.recordings = append(p.recordings[:i:i], p.recordings[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Pipeline) ClearRecordings() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recordings = nil
}
