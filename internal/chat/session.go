package chat

import (
	"context"
	"errors"
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
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

var (
	ErrEmptyMessage         = errors.New("message is empty")
	ErrSendInFlight         = errors.New("a message is already being sent")
	ErrConversationNotFound = errors.New("conversation not found")
)

type Snapshot struct {
	State          State         `json:"-"`
	ConversationID string        `json:"conversationId"`
	Messages       []ChatMessage `json:"messages"`
	Error          string        `json:"error,omitempty"`
}

// Session is the assistant conversation of one user. Only one message can be
// in flight at a time; the gateway call runs without holding the lock.
type Session struct {
	mu             sync.Mutex
	gateway        gateway.CompletionGateway
	store          *ConversationStore
	model          string
	state          State
	err            string
	messages       []ChatMessage
	conversationID string

	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type SessionOption func(*Session)

func WithModel(model string) SessionOption {
	return func(s *Session) { s.model = model }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession resumes the most recently updated stored conversation, if any.
func NewSession(gw gateway.CompletionGateway, store *ConversationStore, opts ...SessionOption) *Session {
	s := &Session{
		gateway: gw,
		store:   store,
		model:   gateway.DefaultChatModel,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat_session")

	if recent := store.List(); len(recent) > 0 {
		s.conversationID = recent[0].ID
		s.messages = recent[0].Messages
	}

	return s
}

// SendMessage appends text as a user message and waits for the assistant
// reply. Empty text and sends while another one is in flight are rejected
// without changing any state. A failed call leaves the user message in the
// active conversation, records the error, and does not touch the store.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return ErrSendInFlight
	}

	s.messages = append(s.messages, ChatMessage{
		ID:        s.newID(),
		Role:      gateway.RoleUser,
		Content:   text,
		Timestamp: s.now().UTC(),
	})
	s.err = ""
	s.state = StateSending

	conversation := make([]gateway.Message, len(s.messages))
	for i, msg := range s.messages {
		conversation[i] = gateway.Message{Role: msg.Role, Content: msg.Content}
	}
	s.mu.Unlock()

	completion, err := s.gateway.Complete(ctx, conversation, s.model)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateIdle

	if err != nil {
		s.err = gateway.UserMessage(gateway.FeatureAssistant, err)
		s.logger.Error("assistant request failed", "conversation_id", s.conversationID, "error", err)
		return nil
	}

	now := s.now().UTC()
	s.messages = append(s.messages, ChatMessage{
		ID:        s.newID(),
		Role:      gateway.RoleAssistant,
		Content:   completion.Content,
		Timestamp: now,
	})

	conv, exists := Conversation{}, false
	if s.conversationID != "" {
		conv, exists = s.store.Get(s.conversationID)
	}
	if !exists {
		id := s.conversationID
		if id == "" {
			id = s.newID()
		}
		conv = Conversation{
			ID:        id,
			Title:     DeriveTitle(s.messages),
			CreatedAt: s.messages[0].Timestamp,
		}
	}
	conv.Messages = append([]ChatMessage(nil), s.messages...)
	conv.UpdatedAt = now

	s.store.Upsert(conv)
	s.conversationID = conv.ID

	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:          s.state,
		ConversationID: s.conversationID,
		Messages:       append([]ChatMessage{}, s.messages...),
		Error:          s.err,
	}
}

func (s *Session) CurrentConversation() (Conversation, bool) {
	s.mu.Lock()
	id := s.conversationID
	s.mu.Unlock()

	if id == "" {
		return Conversation{}, false
	}
	return s.store.Get(id)
}

func (s *Session) Conversations() []Conversation {
	return s.store.List()
}

func (s *Session) resetLocked() {
	s.messages = nil
	s.conversationID = ""
	s.err = ""
}

func (s *Session) StartNewConversation() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSending {
		return ErrSendInFlight
	}
	s.resetLocked()
	return nil
}

func (s *Session) LoadConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSending {
		return ErrSendInFlight
	}

	conv, ok := s.store.Get(id)
	if !ok {
		return ErrConversationNotFound
	}

	s.conversationID = conv.ID
	s.messages = conv.Messages
	s.err = ""
	return nil
}

func (s *Session) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.conversationID {
		if s.state == StateSending {
			return ErrSendInFlight
		}
		s.resetLocked()
	}
	s.store.Remove(id)
	return nil
}

func (s *Session) ClearAllConversations() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSending {
		return ErrSendInFlight
	}
	s.store.Clear()
	s.resetLocked()
	return nil
}
