// Package llm provides the chat completion client used for slot extraction,
// crisis confirmation and response generation. The client speaks the
// OpenAI-compatible chat completions API, which covers Groq, OpenAI and
// OpenRouter deployments.
package llm

import "context"

// Message is a single chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int

	// JSONMode forces the model to emit a single JSON object. Used by the
	// slot extractor and the crisis confirmation call.
	JSONMode bool

	Metadata map[string]any
}

// TokenUsage reports token accounting returned by the provider.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the aggregated result of a completion call.
type CompletionResponse struct {
	Content    string
	StopReason string
	Usage      TokenUsage
}

// ContentDelta carries one incremental text fragment during streaming.
// Final marks the end of the stream and carries no text.
type ContentDelta struct {
	Delta string
	Final bool
}

// StreamCallbacks receives incremental output during StreamComplete.
type StreamCallbacks struct {
	OnContentDelta func(delta ContentDelta)
}

// Client is the completion provider contract. Implementations must be safe
// for concurrent use.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	StreamComplete(ctx context.Context, req CompletionRequest, callbacks StreamCallbacks) (*CompletionResponse, error)
	Model() string
}

// Config carries provider connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    int // seconds
	MaxRetries int
}
