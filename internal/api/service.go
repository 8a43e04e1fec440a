package api

import (
	"net/http"
	"time"

	"playground-ai/internal/gateway"
	"playground-ai/internal/storage"
	"playground-ai/internal/workspace"
	"playground-ai/internal/youtube"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"
)

const (
	// Upper bound for a session send, which outlives the request.
	sendTimeout = 2 * time.Minute

	MaxAudioBytes  = 25 * 1024 * 1024
	MaxUploadBytes = 50 * 1024 * 1024
)

type PlaygroundService struct {
	db          *gorm.DB
	workspaces  *workspace.Cache
	completion  gateway.CompletionGateway
	transcriber gateway.Transcriber
	videos      *youtube.Client
	blobs       storage.Provider
	bucket      string
	downloader  *resty.Client
	now         func() time.Time
}

func NewPlaygroundService(
	db *gorm.DB,
	workspaces *workspace.Cache,
	completion gateway.CompletionGateway,
	transcriber gateway.Transcriber,
	videos *youtube.Client,
	blobs storage.Provider,
	bucket string,
) *PlaygroundService {
	return &PlaygroundService{
		db:          db,
		workspaces:  workspaces,
		completion:  completion,
		transcriber: transcriber,
		videos:      videos,
		blobs:       blobs,
		bucket:      bucket,
		downloader:  resty.New().SetTimeout(30 * time.Second),
		now:         time.Now,
	}
}

// AddRoutes registers the health check and, behind auth, every user route.
func (s *PlaygroundService) AddRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return map[string]string{"status": "ok"}, nil }))

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/assistant", func(r chi.Router) {
			r.Post("/", RestHandler(s.Assistant))
			r.Get("/session", RestHandler(s.GetSession))
			r.Post("/session/messages", RestHandler(s.SendMessage))
			r.Post("/session/new", RestHandler(s.StartConversation))
			r.Get("/conversations", RestHandler(s.ListConversations))
			r.Delete("/conversations", RestHandler(s.ClearConversations))
			r.Get("/conversations/{conversation_id}", RestHandler(s.GetConversation))
			r.Post("/conversations/{conversation_id}/load", RestHandler(s.LoadConversation))
			r.Delete("/conversations/{conversation_id}", RestHandler(s.DeleteConversation))
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetImages))
			r.Post("/", RestHandler(s.GenerateImage))
			r.Delete("/", RestHandler(s.ClearImages))
			r.Post("/{image_id}/select", RestHandler(s.SelectImage))
			r.Delete("/{image_id}", RestHandler(s.DeleteImage))
			r.Get("/{image_id}/download", s.DownloadImage)
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetQuote))
			r.Get("/daily", RestHandler(s.GetDailyQuote))
		})

		r.Post("/transcribe", RestHandler(s.Transcribe))

		r.Route("/voice", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetVoiceStatus))
			r.Post("/start", RestHandler(s.StartRecording))
			r.Post("/chunks", RestHandler(s.PushAudio))
			r.Post("/stop", RestHandler(s.StopRecording))
			r.Delete("/recordings", RestHandler(s.ClearRecordings))
			r.Delete("/recordings/{recording_id}", RestHandler(s.DeleteRecording))
			r.Get("/recordings/{recording_id}/audio", s.GetRecordingAudio)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/search", RestHandler(s.SearchVideos))
			r.Get("/popular", RestHandler(s.PopularVideos))
			r.Get("/{video_id}", RestHandler(s.GetVideo))
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", RestHandler(s.ListNotes))
			r.Post("/", RestHandler(s.CreateNote))
			r.Put("/{note_id}", RestHandler(s.UpdateNote))
			r.Delete("/{note_id}", RestHandler(s.DeleteNote))
		})

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", RestHandler(s.ListTodos))
			r.Post("/", RestHandler(s.CreateTodo))
			r.Post("/{todo_id}/toggle", RestHandler(s.ToggleTodo))
			r.Delete("/{todo_id}", RestHandler(s.DeleteTodo))
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/", RestHandler(s.ListFiles))
			r.Post("/", RestHandler(s.UploadFile))
			r.Get("/{file_id}/download", s.DownloadFile)
			r.Delete("/{file_id}", RestHandler(s.DeleteFile))
		})

		r.Get("/profile", RestHandler(s.GetProfile))
	})
}

func (s *PlaygroundService) workspace(r *http.Request) (*workspace.Workspace, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	return s.workspaces.Get(userId), nil
}
