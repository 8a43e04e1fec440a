package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"playground-ai/internal/gateway"
	"playground-ai/internal/state"

	"github.com/google/uuid"
)

const (
	historyKey = "generatedImages"
	MaxImages  = 20

	EmptyPromptMessage = "Please enter a prompt to generate an image"
)

var (
	ErrEmptyPrompt        = errors.New(EmptyPromptMessage)
	ErrGenerationInFlight = errors.New("an image is already being generated")
	ErrImageNotFound      = errors.New("image not found")
)

type Settings struct {
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

type GeneratedImage struct {
	ID             string    `json:"id"`
	ImageURL       string    `json:"imageUrl"`
	OriginalPrompt string    `json:"originalPrompt"`
	RevisedPrompt  string    `json:"revisedPrompt,omitempty"`
	Settings       Settings  `json:"settings"`
	Timestamp      time.Time `json:"timestamp"`
}

type Snapshot struct {
	Images  []GeneratedImage `json:"images"`
	Current *GeneratedImage  `json:"current"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

// History keeps the most recent generated images of one user, newest
// first, and remembers which one is being viewed.
type History struct {
	gw     gateway.ImageGateway
	state  state.Store
	logger *slog.Logger

	mu        sync.Mutex
	images    []GeneratedImage
	currentId string
	loading   bool
	err       string
}

type Option func(*History)

func WithLogger(logger *slog.Logger) Option {
	return func(h *History) { h.logger = logger }
}

func NewHistory(gw gateway.ImageGateway, st state.Store, opts ...Option) *History {
	h := &History{gw: gw, state: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "image_history")
	h.Load()
	return h
}

// Load replaces the in-memory history with the persisted one. A missing or
// unreadable entry leaves the history empty.
func (h *History) Load() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.images = nil
	h.currentId = ""

	data, err := h.state.Load(historyKey)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			h.logger.Error("error loading image history", "error", err)
		}
		return
	}

	var images []GeneratedImage
	if err := json.Unmarshal(data, &images); err != nil {
		h.logger.Error("error decoding image history", "error", err)
		return
	}

	h.images = images
	if len(images) > 0 {
		h.currentId = images[0].ID
	}
}

func (h *History) persistLocked() {
	data, err := json.Marshal(h.images)
	if err != nil {
		h.logger.Error("error encoding image history", "error", err)
		return
	}
	if err := h.state.Save(historyKey, data); err != nil {
		h.logger.Error("error saving image history", "error", err)
	}
}

// Generate asks the gateway for a new image and makes it current. The
// failure message shown to the user is kept in the snapshot.
func (h *History) Generate(ctx context.Context, prompt string, settings Settings) (GeneratedImage, error) {
	prompt = strings.TrimSpace(prompt)

	h.mu.Lock()
	if prompt == "" {
		h.err = EmptyPromptMessage
		h.mu.Unlock()
		return GeneratedImage{}, ErrEmptyPrompt
	}
	if h.loading {
		h.mu.Unlock()
		return GeneratedImage{}, ErrGenerationInFlight
	}
	h.loading = true
	h.err = ""
	h.mu.Unlock()

	req := gateway.ImageRequest{
		Prompt:  prompt,
		Size:    settings.Size,
		Quality: settings.Quality,
		Style:   settings.Style,
	}.WithDefaults()

	result, err := h.gw.GenerateImage(ctx, req)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.loading = false

	if err != nil {
		h.err = gateway.UserMessage(gateway.FeatureImage, err)
		return GeneratedImage{}, err
	}

	image := GeneratedImage{
		ID:             uuid.NewString(),
		ImageURL:       result.URL,
		OriginalPrompt: prompt,
		RevisedPrompt:  result.RevisedPrompt,
		Settings: Settings{
			Size:    result.Request.Size,
			Quality: result.Request.Quality,
			Style:   result.Request.Style,
		},
		Timestamp: result.Timestamp,
	}

	h.images = append([]GeneratedImage{image}, h.images...)
	if len(h.images) > MaxImages {
		h.images = h.images[:MaxImages]
	}
	h.currentId = image.ID
	h.persistLocked()

	return image, nil
}

func (h *History) List() []GeneratedImage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]GeneratedImage(nil), h.images...)
}

func (h *History) findLocked(id string) (int, bool) {
	for i, img := range h.images {
		if img.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (h *History) Current() (GeneratedImage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i, ok := h.findLocked(h.currentId); ok {
		return h.images[i], true
	}
	return GeneratedImage{}, false
}

func (h *History) Get(id string) (GeneratedImage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i, ok := h.findLocked(id); ok {
		return h.images[i], true
	}
	return GeneratedImage{}, false
}

func (h *History) Select(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.findLocked(id); !ok {
		return ErrImageNotFound
	}
	h.currentId = id
	return nil
}

// Delete removes an image. Deleting the current image makes the newest
// remaining image current.
func (h *History) Delete(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	i, ok := h.findLocked(id)
	if !ok {
		return ErrImageNotFound
	}
	h.images = append(h.images[:i:i], h.images[i+1:]...)

	if h.currentId == id {
		h.currentId = ""
		if len(h.images) > 0 {
			h.currentId = h.images[0].ID
		}
	}

	h.persistLocked()
	return nil
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.images = nil
	h.currentId = ""
	if err := h.state.Remove(historyKey); err != nil {
		h.logger.Error("error clearing image history", "error", err)
	}
}

// Generating reports whether an image generation is in flight.
func (h *History) Generating() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

func (h *History) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := Snapshot{
		Images:  append([]GeneratedImage{}, h.images...),
		Loading: h.loading,
		Error:   h.err,
	}
	if i, ok := h.findLocked(h.currentId); ok {
		current := h.images[i]
		snap.Current = &current
	}
	return snap
}

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// DownloadFilename names a downloaded image after its prompt, for example
// "ai_generated_a_red_fox_1700000000000.png".
func DownloadFilename(prompt string, now time.Time) string {
	sanitized := disallowedChars.ReplaceAllString(strings.ToLower(prompt), "")
	sanitized = whitespaceRuns.ReplaceAllString(sanitized, "_")
	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}
	return fmt.Sprintf("ai_generated_%s_%d.png", sanitized, now.UnixMilli())
}
