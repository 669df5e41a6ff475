package llm

import (
	"context"
	"strings"
	"sync"
)

// MockClient implements Client for tests. Responses are consumed in order;
// when the queue is empty CompleteFunc (if set) handles the call, otherwise
// a canned reply is returned.
type MockClient struct {
	mu        sync.Mutex
	responses []mockResponse
	calls     []CompletionRequest

	// CompleteFunc, when set, handles calls not covered by the queue.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

type mockResponse struct {
	content string
	err     error
}

// Queue appends a successful response to the reply queue.
func (m *MockClient) Queue(content string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{content: content})
	return m
}

// QueueError appends a failing response to the reply queue.
func (m *MockClient) QueueError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{err: err})
	return m
}

// Calls returns a copy of every request seen so far.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionRequest(nil), m.calls...)
}

func (m *MockClient) Model() string { return "mock-model" }

func (m *MockClient) next(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	var resp *mockResponse
	if len(m.responses) > 0 {
		resp = &m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if resp == nil {
		if m.CompleteFunc != nil {
			return m.CompleteFunc(ctx, req)
		}
		return &CompletionResponse{Content: "ok", StopReason: "stop"}, nil
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &CompletionResponse{
		Content:    resp.content,
		StopReason: "stop",
		Usage:      TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return m.next(ctx, req)
}

// StreamComplete replays the next queued response word by word.
func (m *MockClient) StreamComplete(ctx context.Context, req CompletionRequest, callbacks StreamCallbacks) (*CompletionResponse, error) {
	resp, err := m.next(ctx, req)
	if err != nil {
		return nil, err
	}

	if callbacks.OnContentDelta != nil {
		for _, word := range strings.SplitAfter(resp.Content, " ") {
			if word == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			callbacks.OnContentDelta(ContentDelta{Delta: word})
		}
		callbacks.OnContentDelta(ContentDelta{Final: true})
	}

	return resp, nil
}
