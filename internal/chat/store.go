package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"playground-ai/internal/state"
)

const (
	MaxConversations = 20
	conversationsKey = "assistantConversations"
)

// ConversationStore keeps the most recently updated conversations first and
// writes the whole list through to the state store after every mutation.
type ConversationStore struct {
	mu            sync.RWMutex
	state         state.Store
	conversations []Conversation
	logger        *slog.Logger
}

// LoadConversationStore reads persisted history. Missing or unreadable data
// yields an empty store.
func LoadConversationStore(st state.Store, logger *slog.Logger) *ConversationStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ConversationStore{state: st, logger: logger.With("component", "conversation_store")}

	data, err := st.Load(conversationsKey)
	switch {
	case errors.Is(err, state.ErrNotFound):
	case err != nil:
		s.logger.Error("error loading conversations", "error", err)
	default:
		var conversations []Conversation
		if err := json.Unmarshal(data, &conversations); err != nil {
			s.logger.Error("stored conversations are corrupt, starting empty", "error", err)
		} else {
			if len(conversations) > MaxConversations {
				conversations = conversations[:MaxConversations]
			}
			s.conversations = conversations
		}
	}

	return s
}

func (s *ConversationStore) persist() {
	data, err := json.Marshal(s.conversations)
	if err != nil {
		s.logger.Error("error serializing conversations", "error", err)
		return
	}
	if err := s.state.Save(conversationsKey, data); err != nil {
		s.logger.Error("error saving conversations", "error", err)
	}
}

// Upsert replaces the conversation with the same id, or inserts it, and
// moves it to the front. The oldest entries beyond MaxConversations are
// dropped.
func (s *ConversationStore) Upsert(conv Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]Conversation, 0, len(s.conversations)+1)
	updated = append(updated, conv.clone())
	for _, c := range s.conversations {
		if c.ID != conv.ID {
			updated = append(updated, c)
		}
	}
	if len(updated) > MaxConversations {
		updated = updated[:MaxConversations]
	}
	s.conversations = updated

	s.persist()
}

func (s *ConversationStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.conversations = kept

	s.persist()
}

func (s *ConversationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = nil
	if err := s.state.Remove(conversationsKey); err != nil {
		s.logger.Error("error clearing conversations", "error", err)
	}
}

// List returns a copy of the stored conversations, most recent first.
func (s *ConversationStore) List() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.clone()
	}
	return out
}

func (s *ConversationStore) Get(id string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.conversations {
		if c.ID == id {
			return c.clone(), true
		}
	}
	return Conversation{}, false
}
