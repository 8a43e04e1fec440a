package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	backend "playground-ai/internal/api"
	"playground-ai/internal/database"
	"playground-ai/internal/gateway"
	"playground-ai/internal/identity"
	"playground-ai/internal/state"
	"playground-ai/internal/storage"
	"playground-ai/internal/workspace"
	"playground-ai/internal/youtube"
	"playground-ai/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

type quoteGenerator struct{}

func (quoteGenerator) GenerateQuote(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return `"Small steps every day." - Unknown`, nil
}

// fakeOpenAI serves the subset of the OpenAI API used by the gateways.
type fakeOpenAI struct {
	server     *httptest.Server
	chatStatus atomic.Int32
	chatCalls  atomic.Int32
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	f := &fakeOpenAI{}
	mux := http.NewServeMux()

	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.chatCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if status := int(f.chatStatus.Load()); status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`)
	})

	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"created":1,"data":[{"url":"`+f.server.URL+`/generated/fox.png","revised_prompt":"a red fox in snow"}]}`)
	})

	mux.HandleFunc("/generated/fox.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})

	mux.HandleFunc("/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello from the recording\n")
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

type testEnv struct {
	router http.Handler
	db     *gorm.DB
	blobs  *storage.LocalProvider
	openai *fakeOpenAI
}

func newTestEnv(t *testing.T) *testEnv {
	db := createDB(t)
	blobs := storage.NewLocalProvider(t.TempDir())
	fake := newFakeOpenAI(t)

	openAI := gateway.NewOpenAI(gateway.OpenAIConfig{APIKey: "sk-test", BaseURL: fake.server.URL}, nil)
	whisper := gateway.NewWhisper(gateway.WhisperConfig{APIKey: "sk-test", BaseURL: fake.server.URL}, nil)

	deps := workspace.Dependencies{
		Completion:  openAI,
		Images:      openAI,
		Transcriber: whisper,
		Quotes:      quoteGenerator{},
		State:       state.NewDBStore(db),
		Blobs:       blobs,
		Bucket:      "uploads",
	}
	cache := workspace.NewCache(8, func(userId string) *workspace.Workspace {
		return workspace.New(userId, deps)
	})

	auth, err := identity.NewAuthenticator("", nil)
	require.NoError(t, err)

	service := backend.NewPlaygroundService(db, cache, openAI, whisper, youtube.NewClient(youtube.Config{}, nil), blobs, "uploads")
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r, auth.Middleware)
	})

	return &testEnv{router: router, db: db, blobs: blobs, openai: fake}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(identity.UserIdHeader, "user-1")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatelessAssistant(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/assistant", api.AssistantRequest{
		Messages: []api.AssistantMessage{{Role: "user", Content: "hello"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.AssistantResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "assistant", res.Message.Role)
	assert.Equal(t, "Hi there", res.Message.Content)
	assert.Equal(t, int64(13), res.Usage.TotalTokens)

	rec = env.do(t, http.MethodPost, "/api/v1/assistant", api.AssistantRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errRes := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "Messages array is required", errRes.Error)
	assert.Equal(t, "invalid_request", errRes.Type)

	rec = env.do(t, http.MethodPost, "/api/v1/assistant", api.AssistantRequest{
		Messages: []api.AssistantMessage{{Role: "tool", Content: "hello"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.openai.chatStatus.Store(http.StatusTooManyRequests)
	rec = env.do(t, http.MethodPost, "/api/v1/assistant", api.AssistantRequest{
		Messages: []api.AssistantMessage{{Role: "user", Content: "hello"}},
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit", decode[api.ErrorResponse](t, rec).Type)
}

func TestAssistantSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/assistant/session/messages", api.SendMessageRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[api.Session](t, rec)
	assert.Equal(t, "idle", session.State)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, "user", session.Messages[0].Role)
	assert.Equal(t, "Hi there", session.Messages[1].Content)
	assert.Empty(t, session.Error)

	rec = env.do(t, http.MethodGet, "/api/v1/assistant/conversations", nil)
	conversations := decode[[]api.ConversationSummary](t, rec)
	require.Len(t, conversations, 1)
	assert.Equal(t, "hello", conversations[0].Title)
	assert.Equal(t, 2, conversations[0].MessageCount)
	id := conversations[0].Id

	env.openai.chatStatus.Store(http.StatusTooManyRequests)
	rec = env.do(t, http.MethodPost, "/api/v1/assistant/session/messages", api.SendMessageRequest{Message: "again"})
	require.Equal(t, http.StatusOK, rec.Code)
	session = decode[api.Session](t, rec)
	assert.Len(t, session.Messages, 3)
	assert.Equal(t, "Too many requests. Please wait a moment before sending another message.", session.Error)

	rec = env.do(t, http.MethodGet, "/api/v1/assistant/conversations/"+id, nil)
	conversation := decode[api.Conversation](t, rec)
	assert.Len(t, conversation.Messages, 2, "failed sends are not persisted")

	rec = env.do(t, http.MethodPost, "/api/v1/assistant/session/new", nil)
	assert.Empty(t, decode[api.Session](t, rec).Messages)

	rec = env.do(t, http.MethodPost, "/api/v1/assistant/conversations/"+id+"/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[api.Session](t, rec).ConversationId)

	rec = env.do(t, http.MethodPost, "/api/v1/assistant/conversations/missing/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/assistant/session/messages", api.SendMessageRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/assistant/conversations/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/assistant/conversations", nil)
	assert.Empty(t, decode[[]api.ConversationSummary](t, rec))
}

func TestImages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/images", api.GenerateImageRequest{Prompt: "A red fox!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	image := decode[api.GeneratedImage](t, rec)
	assert.Equal(t, "a red fox in snow", image.RevisedPrompt)
	assert.Equal(t, api.ImageSettings{Size: "1024x1024", Quality: "standard", Style: "vivid"}, image.Settings)

	rec = env.do(t, http.MethodPost, "/api/v1/images", api.GenerateImageRequest{Prompt: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter a prompt to generate an image", decode[api.ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/images", api.GenerateImageRequest{Prompt: "fox", Size: "10x10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[api.ErrorResponse](t, rec).Error, "Invalid size")

	rec = env.do(t, http.MethodGet, "/api/v1/images/"+image.Id+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="ai_generated_a_red_fox_`)

	rec = env.do(t, http.MethodGet, "/api/v1/images", nil)
	history := decode[api.ImageHistory](t, rec)
	require.Len(t, history.Images, 1)
	require.NotNil(t, history.Current)
	assert.Equal(t, image.Id, history.Current.Id)

	rec = env.do(t, http.MethodPost, "/api/v1/images/missing/select", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/images/"+image.Id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history = decode[api.ImageHistory](t, rec)
	assert.Empty(t, history.Images)
	assert.Nil(t, history.Current)
}

func TestQuotes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/quotes?type=morning", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quote struct {
		Quote       string `json:"quote"`
		Attribution string `json:"attribution"`
		Type        string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "Small steps every day.", quote.Quote)
	assert.Equal(t, "Unknown", quote.Attribution)
	assert.Equal(t, "morning", quote.Type)

	rec = env.do(t, http.MethodGet, "/api/v1/quotes?type=weekly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/quotes/daily", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestTranscribe(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, "audio", "clip.webm", []byte("audio"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(identity.UserIdHeader, "user-1")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.TranscribeResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "hello from the recording", res.Transcript)

	body, contentType = multipartBody(t, "", "", nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(identity.UserIdHeader, "user-1")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No audio file provided", decode[api.ErrorResponse](t, rec).Error)
}

func TestVoiceRecording(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/voice/chunks", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/voice/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "recording", decode[api.VoiceStatus](t, rec).State)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/chunks", strings.NewReader("audio-chunk"))
	req.Header.Set(identity.UserIdHeader, "user-1")
	chunkRec := httptest.NewRecorder()
	env.router.ServeHTTP(chunkRec, req)
	require.Equal(t, http.StatusOK, chunkRec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/voice/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recording := decode[api.Recording](t, rec)
	assert.Equal(t, "hello from the recording", recording.Transcript)
	assert.True(t, recording.Transcribed)

	rec = env.do(t, http.MethodGet, "/api/v1/voice/recordings/"+recording.Id+"/audio", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio-chunk", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/voice/stop", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/voice/recordings/"+recording.Id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/voice/recordings/"+recording.Id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVideosNotConfigured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/videos/search?q=cats", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "YouTube API key not configured")

	rec = env.do(t, http.MethodGet, "/api/v1/videos/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
