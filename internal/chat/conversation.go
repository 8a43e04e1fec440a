package chat

import (
	"strings"
	"time"
	"unicode/utf8"

	"playground-ai/internal/gateway"
)

const maxTitleLength = 50

type ChatMessage struct {
	ID        string       `json:"id"`
	Role      gateway.Role `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
}

type Conversation struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (c Conversation) clone() Conversation {
	c.Messages = append([]ChatMessage(nil), c.Messages...)
	return c
}

// DeriveTitle builds a conversation title from the first user message.
func DeriveTitle(messages []ChatMessage) string {
	for _, msg := range messages {
		if msg.Role == gateway.RoleUser {
			return truncateTitle(strings.TrimSpace(msg.Content))
		}
	}
	return "New conversation"
}

func truncateTitle(text string) string {
	if utf8.RuneCountInString(text) <= maxTitleLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxTitleLength]) + "..."
}
