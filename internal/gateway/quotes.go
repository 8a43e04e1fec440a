package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type QuoteLLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// QuoteLLM generates short motivational quotes.
type QuoteLLM struct {
	llm    llms.Model
	logger *slog.Logger
}

func NewQuoteLLM(cfg QuoteLLMConfig, logger *slog.Logger) (*QuoteLLM, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}

	opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create OpenAI client: %w", err)
	}

	return &QuoteLLM{llm: client, logger: logger.With("component", "quote_gateway")}, nil
}

func (q *QuoteLLM) GenerateQuote(ctx context.Context, systemPrompt, prompt string) (string, error) {
	text, err := q.generate(ctx, systemPrompt, prompt)
	observe("quote", err)
	return text, err
}

func (q *QuoteLLM) generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := q.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(100), llms.WithTemperature(0.8))
	if err != nil {
		gerr := classify(FeatureQuote, err)
		q.logger.Error("quote generation failed", "kind", gerr.Kind, "error", err)
		return "", gerr
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", newError(FeatureQuote, ErrorUnknown, errors.New("no quote generated"))
	}

	return resp.Choices[0].Content, nil
}
