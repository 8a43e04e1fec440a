package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorRateLimited
	ErrorQuotaExceeded
	ErrorContentPolicy
	ErrorInvalidRequest
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorRateLimited:
		return "rate_limit"
	case ErrorQuotaExceeded:
		return "quota"
	case ErrorContentPolicy:
		return "content_policy"
	case ErrorInvalidRequest:
		return "invalid_request"
	default:
		return "general"
	}
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrorRateLimited:
		return http.StatusTooManyRequests
	case ErrorQuotaExceeded:
		return http.StatusForbidden
	case ErrorContentPolicy, ErrorInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Feature selects the user facing wording of an error.
type Feature int

const (
	FeatureAssistant Feature = iota
	FeatureImage
	FeatureTranscription
	FeatureQuote
)

var userMessages = map[Feature]map[ErrorKind]string{
	FeatureAssistant: {
		ErrorRateLimited:    "Too many requests. Please wait a moment before sending another message.",
		ErrorQuotaExceeded:  "API quota exceeded. Please check your OpenAI account.",
		ErrorContentPolicy:  "Message violates content policy. Please rephrase your request.",
		ErrorInvalidRequest: "Invalid request. Please check your message and try again.",
		ErrorUnknown:        "Failed to get response from assistant. Please try again.",
	},
	FeatureImage: {
		ErrorRateLimited:    "Rate limit exceeded. Please wait a moment before generating another image.",
		ErrorQuotaExceeded:  "Insufficient API quota. Please check your OpenAI account.",
		ErrorContentPolicy:  "Content policy violation. Please modify your prompt to comply with OpenAI's usage policies.",
		ErrorInvalidRequest: "Invalid image request. Please check your prompt and settings.",
		ErrorUnknown:        "Failed to generate image. Please try again later.",
	},
	FeatureTranscription: {
		ErrorRateLimited:    "Too many transcription requests. Please wait a moment.",
		ErrorQuotaExceeded:  "API quota exceeded. Please check your OpenAI account.",
		ErrorContentPolicy:  "Failed to transcribe audio. Please try again.",
		ErrorInvalidRequest: "Invalid audio format. Please try again with a different recording.",
		ErrorUnknown:        "Failed to transcribe audio. Please try again.",
	},
	FeatureQuote: {
		ErrorRateLimited:    "Too many requests. Please wait a moment.",
		ErrorQuotaExceeded:  "API quota exceeded. Please check your OpenAI account.",
		ErrorContentPolicy:  "Failed to generate quote.",
		ErrorInvalidRequest: "Failed to generate quote.",
		ErrorUnknown:        "Failed to generate quote.",
	},
}

// Error is the single failure type returned by every gateway.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(feature Feature, kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Message: userMessages[feature][kind], Err: cause}
}

// InvalidRequest reports a precondition violation detected before any
// remote call was made.
func InvalidRequest(message string) *Error {
	return &Error{Kind: ErrorInvalidRequest, Message: message}
}

// classifyText maps provider diagnostics onto an ErrorKind. The substrings
// are the error codes the OpenAI API puts in its error bodies.
func classifyText(statusCode int, text string) ErrorKind {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "content_policy_violation"):
		return ErrorContentPolicy
	case strings.Contains(lower, "insufficient_quota"):
		return ErrorQuotaExceeded
	case strings.Contains(lower, "rate_limit_exceeded"), statusCode == http.StatusTooManyRequests:
		return ErrorRateLimited
	case strings.Contains(lower, "invalid_request_error"):
		return ErrorInvalidRequest
	}
	return ErrorUnknown
}

func classify(feature Feature, err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		text := strings.Join([]string{apiErr.Code, apiErr.Type, apiErr.Message, apiErr.Error()}, " ")
		return newError(feature, classifyText(apiErr.StatusCode, text), err)
	}

	return newError(feature, classifyText(0, err.Error()), err)
}

func KindOf(err error) ErrorKind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return ErrorUnknown
}

// UserMessage returns the text that should be shown for a failed call.
func UserMessage(feature Feature, err error) string {
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	return userMessages[feature][ErrorUnknown]
}
