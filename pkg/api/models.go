package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AssistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantRequest is validated against the conversation rules of the
// completion gateway rather than with struct tags so that the reported
// messages match the remote contract.
type AssistantRequest struct {
	Messages []AssistantMessage `json:"messages"`
	Model    string             `json:"model"`
}

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

type AssistantResponse struct {
	Success   bool             `json:"success"`
	Message   AssistantMessage `json:"message"`
	Usage     Usage            `json:"usage"`
	Model     string           `json:"model"`
	Timestamp time.Time        `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChatMessage struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	State          string        `json:"state"`
	ConversationId string        `json:"conversationId,omitempty"`
	Messages       []ChatMessage `json:"messages"`
	Error          string        `json:"error,omitempty"`
}

type ConversationSummary struct {
	Id           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Conversation struct {
	ConversationSummary
	Messages []ChatMessage `json:"messages"`
}

type GenerateImageRequest struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

type ImageSettings struct {
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

type GeneratedImage struct {
	Id             string        `json:"id"`
	ImageUrl       string        `json:"imageUrl"`
	OriginalPrompt string        `json:"originalPrompt"`
	RevisedPrompt  string        `json:"revisedPrompt,omitempty"`
	Settings       ImageSettings `json:"settings"`
	Timestamp      time.Time     `json:"timestamp"`
}

type ImageHistory struct {
	Images  []GeneratedImage `json:"images"`
	Current *GeneratedImage  `json:"current"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

type QuoteParams struct {
	Type     string `schema:"type" validate:"omitempty,oneof=daily morning achievement other"`
	Category string `schema:"category" validate:"omitempty,max=50"`
}

type TranscribeResponse struct {
	Success    bool      `json:"success"`
	Transcript string    `json:"transcript"`
	Timestamp  time.Time `json:"timestamp"`
}

type Recording struct {
	Id              string    `json:"id"`
	Transcript      string    `json:"transcript"`
	Transcribed     bool      `json:"transcribed"`
	DurationSeconds float64   `json:"duration"`
	Timestamp       time.Time `json:"timestamp"`
}

type VoiceStatus struct {
	State      string      `json:"state"`
	Error      string      `json:"error,omitempty"`
	Recordings []Recording `json:"recordings"`
}

type VideoSearchParams struct {
	Query      string `schema:"q" validate:"required"`
	MaxResults int    `schema:"maxResults" validate:"omitempty,min=1,max=50"`
	PageToken  string `schema:"pageToken"`
}

type PopularVideosParams struct {
	MaxResults int    `schema:"maxResults" validate:"omitempty,min=1,max=50"`
	RegionCode string `schema:"regionCode" validate:"omitempty,len=2"`
}

type NoteRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content"`
	Tags    []string `json:"tags" validate:"omitempty,dive,required,max=50"`
}

type Note struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	IsVoiceNote bool      `json:"isVoiceNote"`
	AudioKey    string    `json:"audioKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TodoRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

type Todo struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type FileItem struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"type"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type UserStats struct {
	TotalDataItems     int   `json:"totalDataItems"`
	TotalFilesUploaded int   `json:"totalFilesUploaded"`
	StorageUsed        int64 `json:"storageUsed"`
}

type UserProfile struct {
	Id            string          `json:"id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	ImageUrl      string          `json:"imageUrl"`
	EmailVerified bool            `json:"emailVerified"`
	Stats         UserStats       `json:"stats"`
	Preferences   json.RawMessage `json:"preferences"`
	LastLoginAt   *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
