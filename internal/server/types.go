package server

import (
	"time"

	"flou/internal/dialogue"
	"flou/internal/i18n"
	"flou/internal/llm"
	"flou/internal/session"
)

// APIResponse is the uniform envelope for non-streaming endpoints.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HistoryMessage is one prior turn supplied by the client.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for both the blocking and streaming chat
// endpoints. An empty SessionID starts a new session.
type ChatRequest struct {
	SessionID string           `json:"session_id"`
	UserID    string           `json:"user_id"`
	Text      string           `json:"text" binding:"required,max=2000"`
	Locale    string           `json:"locale"`
	History   []HistoryMessage `json:"history"`
}

// ChatResponse is the blocking chat endpoint's result.
type ChatResponse struct {
	SessionID    string                `json:"session_id"`
	Reply        string                `json:"reply"`
	QuickReplies []i18n.QuickReply     `json:"quick_replies,omitempty"`
	Metadata     dialogue.TurnMetadata `json:"metadata"`
	IsCrisis     bool                  `json:"is_crisis,omitempty"`
	Session      *session.State        `json:"session"`
}

// CreateSessionRequest starts a session for a user.
type CreateSessionRequest struct {
	UserID string `json:"user_id"`
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

func historyMessages(history []HistoryMessage) []llm.Message {
	if len(history) == 0 {
		return nil
	}
	messages := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := "assistant"
		if m.Role == "user" {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	return messages
}
