package types

import "time"

// Conversation is a chat thread scoped to a project
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateConversationParams is the body of a conversation create call
type CreateConversationParams struct {
	ProjectID string `json:"project_id"`
	Title     string `json:"title,omitempty"`
}

// ChatMessage is a stored message in a conversation
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageParams is the body of a chat turn. The reply streams back as SSE.
type SendMessageParams struct {
	Content   string `json:"content"`
	ProjectID string `json:"project_id,omitempty"`
	Model     string `json:"model,omitempty"`
	NoReply   bool   `json:"noreply,omitempty"`
}
