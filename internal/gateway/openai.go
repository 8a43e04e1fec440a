package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultChatModel  = "gpt-4o-mini"
	DefaultImageModel = "dall-e-3"
)

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	ImageModel string
}

// OpenAI serves chat completions and image generation.
type OpenAI struct {
	client     openai.Client
	imageModel string
	logger     *slog.Logger
	now        func() time.Time
}

func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}

	// Failed calls are reported to the user instead of being retried.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:     openai.NewClient(opts...),
		imageModel: cfg.ImageModel,
		logger:     logger.With("component", "openai_gateway"),
		now:        time.Now,
	}
}

func (g *OpenAI) Complete(ctx context.Context, conversation []Message, model string) (*Completion, error) {
	completion, err := g.complete(ctx, conversation, model)
	observe("chat", err)
	return completion, err
}

func (g *OpenAI) complete(ctx context.Context, conversation []Message, model string) (*Completion, error) {
	if err := ValidateConversation(conversation); err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultChatModel
	}

	var messages []openai.ChatCompletionMessageParamUnion
	for _, msg := range WithSystemPreamble(conversation) {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	g.logger.Info("sending chat request", "model", model, "messages", len(messages))

	res, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:            model,
		Messages:         messages,
		MaxTokens:        openai.Int(1000),
		Temperature:      openai.Float(0.7),
		TopP:             openai.Float(1),
		FrequencyPenalty: openai.Float(0),
		PresencePenalty:  openai.Float(0),
	})
	if err != nil {
		gerr := classify(FeatureAssistant, err)
		g.logger.Error("chat completion failed", "kind", gerr.Kind, "error", err)
		return nil, gerr
	}

	if len(res.Choices) == 0 {
		g.logger.Error("chat completion returned no choices", "model", res.Model)
		return nil, newError(FeatureAssistant, ErrorUnknown, errors.New("no response generated"))
	}

	return &Completion{
		Role:    RoleAssistant,
		Content: res.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     res.Usage.PromptTokens,
			CompletionTokens: res.Usage.CompletionTokens,
			TotalTokens:      res.Usage.TotalTokens,
		},
		Model:     res.Model,
		Timestamp: g.now().UTC(),
	}, nil
}

func (g *OpenAI) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	result, err := g.generateImage(ctx, req)
	observe("image", err)
	return result, err
}

func (g *OpenAI) generateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g.logger.Info("generating image", "size", req.Size, "quality", req.Quality, "style", req.Style)

	res, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:  req.Prompt,
		Model:   openai.ImageModel(g.imageModel),
		N:       openai.Int(1),
		Size:    openai.ImageGenerateParamsSize(req.Size),
		Quality: openai.ImageGenerateParamsQuality(req.Quality),
		Style:   openai.ImageGenerateParamsStyle(req.Style),
	})
	if err != nil {
		gerr := classify(FeatureImage, err)
		g.logger.Error("image generation failed", "kind", gerr.Kind, "error", err)
		return nil, gerr
	}

	if len(res.Data) == 0 || res.Data[0].URL == "" {
		return nil, newError(FeatureImage, ErrorUnknown, errors.New("no image generated"))
	}

	revised := res.Data[0].RevisedPrompt
	if revised == "" {
		revised = req.Prompt
	}

	return &ImageResult{
		URL:           res.Data[0].URL,
		RevisedPrompt: revised,
		Request:       req,
		Timestamp:     g.now().UTC(),
	}, nil
}
