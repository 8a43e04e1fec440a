package gateway

import (
	"context"
	"strings"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

type Completion struct {
	Role      Role
	Content   string
	Usage     Usage
	Model     string
	Timestamp time.Time
}

// CompletionGateway produces the next assistant reply for a conversation.
// Failures are always reported as *Error.
type CompletionGateway interface {
	Complete(ctx context.Context, conversation []Message, model string) (*Completion, error)
}

func ValidateConversation(conversation []Message) error {
	if len(conversation) == 0 {
		return InvalidRequest("Messages array is required")
	}
	for _, msg := range conversation {
		if msg.Role == "" || strings.TrimSpace(msg.Content) == "" {
			return InvalidRequest("Each message must have role and content")
		}
		if !msg.Role.Valid() {
			return InvalidRequest("Invalid message role. Must be system, user, or assistant")
		}
	}
	return nil
}

// WithSystemPreamble prepends the assistant preamble unless the
// conversation already carries a system message.
func WithSystemPreamble(conversation []Message) []Message {
	for _, msg := range conversation {
		if msg.Role == RoleSystem {
			return conversation
		}
	}
	out := make([]Message, 0, len(conversation)+1)
	out = append(out, Message{Role: RoleSystem, Content: AssistantPreamble})
	return append(out, conversation...)
}

const AssistantPreamble = `You are GPT-4o mini, an advanced AI personal assistant for Personal Playground, a comprehensive platform that helps users manage their digital life.

IMPORTANT: You are GPT-4o mini (not GPT-3 or GPT-3.5). You are a more capable and advanced model than previous versions.

The platform includes:
- Data Manager: For storing notes, ideas, and personal information
- File Storage: For uploading and organizing files
- Video Browser: For watching YouTube videos
- Daily Inspiration: For motivational quotes
- AI Image Generator: For creating images from text (DALL-E 3)
- Profile Management: For account settings

Your capabilities include:
- Advanced reasoning and problem-solving
- Creative writing and brainstorming
- Code assistance and technical help
- Detailed analysis and explanations
- Step-by-step guidance for complex tasks
- Personalized recommendations

LIMITATIONS: You cannot browse the web or access real-time information. Your knowledge has a cutoff date and you cannot visit websites or get current information from the internet.

You should be:
- Friendly, helpful, and professional
- Knowledgeable about productivity and organization
- Able to help with general questions and tasks
- Supportive and encouraging
- Honest about your limitations (especially web browsing)
- Clear about being GPT-4o mini when asked

You can help users with:
- Organizing their digital life
- Productivity tips and strategies
- General questions and advice
- Technical support for the platform
- Creative suggestions for content creation
- Time management and goal setting
- Code review and programming help
- Writing and editing assistance
- Problem-solving and analysis

Always be respectful, maintain a positive helpful tone, and be clear about what you can and cannot do.`
