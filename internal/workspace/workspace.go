package workspace

import (
	"log/slog"

	"playground-ai/internal/chat"
	"playground-ai/internal/gateway"
	"playground-ai/internal/images"
	"playground-ai/internal/messaging"
	"playground-ai/internal/quotes"
	"playground-ai/internal/state"
	"playground-ai/internal/storage"
	"playground-ai/internal/voice"
)

// Dependencies are shared by every workspace built by a Cache.
type Dependencies struct {
	Completion  gateway.CompletionGateway
	Images      gateway.ImageGateway
	Transcriber gateway.Transcriber
	Quotes      quotes.Generator

	// State is scoped per user before it is handed to the components.
	State state.Store

	Publisher messaging.Publisher
	Blobs     storage.Provider
	Bucket    string

	ChatModel string
	Logger    *slog.Logger
}

// Workspace is the per user bundle of client side state: the assistant
// session, the voice pipeline feeding voice notes, the image history and
// the quote cache.
type Workspace struct {
	UserId string

	Session *chat.Session
	Device  *voice.StreamDevice
	Voice   *voice.Pipeline
	Notes   *voice.NoteConverter
	Images  *images.History
	Quotes  *quotes.Service
}

func New(userId string, deps Dependencies) *Workspace {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("user_id", userId)

	st := state.Scoped(deps.State, userId)

	sessionOpts := []chat.SessionOption{chat.WithLogger(logger)}
	if deps.ChatModel != "" {
		sessionOpts = append(sessionOpts, chat.WithModel(deps.ChatModel))
	}

	device := voice.NewStreamDevice()
	ws := &Workspace{
		UserId:  userId,
		Session: chat.NewSession(deps.Completion, chat.LoadConversationStore(st, logger), sessionOpts...),
		Device:  device,
		Voice:   voice.NewPipeline(device, deps.Transcriber, voice.WithLogger(logger)),
		Images:  images.NewHistory(deps.Images, st, images.WithLogger(logger)),
		Quotes:  quotes.NewService(deps.Quotes, st, quotes.WithLogger(logger)),
	}

	if deps.Publisher != nil {
		ws.Notes = voice.NewNoteConverter(userId, deps.Publisher, deps.Blobs, deps.Bucket, logger)
		ws.Voice.Subscribe(ws.Notes.OnRecording)
	}

	return ws
}

// Busy reports whether a remote call or a recording is in progress.
func (w *Workspace) Busy() bool {
	if w.Session != nil && w.Session.State() == chat.StateSending {
		return true
	}
	if w.Voice != nil && w.Voice.State() != voice.StateIdle {
		return true
	}
	if w.Images != nil && w.Images.Generating() {
		return true
	}
	if w.Quotes != nil && w.Quotes.Snapshot().Loading {
		return true
	}
	return false
}
