package api

import (
	"context"
	"errors"
	"net/http"

	"playground-ai/internal/chat"
	"playground-ai/internal/gateway"
	"playground-ai/pkg/api"
)

// Assistant answers a caller supplied conversation without touching any
// stored history.
func (s *PlaygroundService) Assistant(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AssistantRequest](r)
	if err != nil {
		return nil, err
	}

	conversation := make([]gateway.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		conversation = append(conversation, gateway.Message{Role: gateway.Role(m.Role), Content: m.Content})
	}

	model := req.Model
	if model == "" {
		model = gateway.DefaultChatModel
	}

	completion, err := s.completion.Complete(r.Context(), conversation, model)
	if err != nil {
		return nil, err
	}

	return api.AssistantResponse{
		Success: true,
		Message: api.AssistantMessage{Role: string(completion.Role), Content: completion.Content},
		Usage: api.Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
		Model:     completion.Model,
		Timestamp: completion.Timestamp,
	}, nil
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return CodedError(http.StatusBadRequest, err)
	case errors.Is(err, chat.ErrSendInFlight):
		return CodedError(http.StatusConflict, err)
	case errors.Is(err, chat.ErrConversationNotFound):
		return CodedError(http.StatusNotFound, err)
	default:
		return err
	}
}

func (s *PlaygroundService) GetSession(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	return convertSession(ws.Session.Snapshot()), nil
}

// SendMessage returns the session after the reply arrived. Gateway failures
// are reported in the session error field, not as an error status.
func (s *PlaygroundService) SendMessage(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SendMessageRequest](r)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), sendTimeout)
	defer cancel()

	if err := ws.Session.SendMessage(ctx, req.Message); err != nil {
		return nil, sessionError(err)
	}
	return convertSession(ws.Session.Snapshot()), nil
}

func (s *PlaygroundService) StartConversation(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	if err := ws.Session.StartNewConversation(); err != nil {
		return nil, sessionError(err)
	}
	return convertSession(ws.Session.Snapshot()), nil
}

func (s *PlaygroundService) ListConversations(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	return convertConversationSummaries(ws.Session.Conversations()), nil
}

func (s *PlaygroundService) GetConversation(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	id, err := URLParam(r, "conversation_id")
	if err != nil {
		return nil, err
	}

	for _, conv := range ws.Session.Conversations() {
		if conv.ID == id {
			return api.Conversation{
				ConversationSummary: convertConversationSummaries([]chat.Conversation{conv})[0],
				Messages:            convertChatMessages(conv.Messages),
			}, nil
		}
	}
	return nil, CodedError(http.StatusNotFound, chat.ErrConversationNotFound)
}

func (s *PlaygroundService) LoadConversation(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	id, err := URLParam(r, "conversation_id")
	if err != nil {
		return nil, err
	}
	if err := ws.Session.LoadConversation(id); err != nil {
		return nil, sessionError(err)
	}
	return convertSession(ws.Session.Snapshot()), nil
}

func (s *PlaygroundService) DeleteConversation(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	id, err := URLParam(r, "conversation_id")
	if err != nil {
		return nil, err
	}
	if err := ws.Session.DeleteConversation(id); err != nil {
		return nil, sessionError(err)
	}
	return nil, nil
}

func (s *PlaygroundService) ClearConversations(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	if err := ws.Session.ClearAllConversations(); err != nil {
		return nil, sessionError(err)
	}
	return nil, nil
}
