package gateway

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxPromptLength = 4000

var (
	ImageSizes     = []string{"256x256", "512x512", "1024x1024", "1792x1024", "1024x1792"}
	ImageQualities = []string{"standard", "hd"}
	ImageStyles    = []string{"vivid", "natural"}
)

type ImageRequest struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

func (r ImageRequest) WithDefaults() ImageRequest {
	if r.Size == "" {
		r.Size = "1024x1024"
	}
	if r.Quality == "" {
		r.Quality = "standard"
	}
	if r.Style == "" {
		r.Style = "vivid"
	}
	return r
}

func (r ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return InvalidRequest("Prompt is required and must be a non-empty string")
	}
	if utf8.RuneCountInString(r.Prompt) > MaxPromptLength {
		return InvalidRequest(fmt.Sprintf("Prompt is too long. Maximum %d characters allowed.", MaxPromptLength))
	}
	if !slices.Contains(ImageSizes, r.Size) {
		return InvalidRequest("Invalid size. Must be one of: " + strings.Join(ImageSizes, ", "))
	}
	if !slices.Contains(ImageQualities, r.Quality) {
		return InvalidRequest(`Invalid quality. Must be either "standard" or "hd"`)
	}
	if !slices.Contains(ImageStyles, r.Style) {
		return InvalidRequest(`Invalid style. Must be either "vivid" or "natural"`)
	}
	return nil
}

type ImageResult struct {
	URL           string
	RevisedPrompt string
	Request       ImageRequest
	Timestamp     time.Time
}

type ImageGateway interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
