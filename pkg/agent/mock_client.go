package agent

import (
	"context"
	"sync"

	"marketbot/pkg/agent/llm"
)

// MockStep is one scripted turn for the mock client.
type MockStep struct {
	Response llm.CompletionResponse
	Err      error
}

// MockClient is a scripted LLM client for tests. Each call pops the next
// step; when the script runs out, a plain "done" response is returned so
// agent loops terminate.
type MockClient struct {
	mu       sync.Mutex
	steps    []MockStep
	Requests []llm.CompletionRequest
	model    string
}

// NewMockClient creates a mock client with the given scripted steps.
func NewMockClient(steps ...MockStep) *MockClient {
	return &MockClient{steps: steps, model: "mock-model"}
}

// MockResponse is shorthand for a successful scripted text response.
func MockResponse(content string) MockStep {
	return MockStep{Response: llm.CompletionResponse{Content: content, StopReason: "end_turn"}}
}

// MockToolCall is shorthand for a scripted response that calls one tool.
func MockToolCall(id, name string, params map[string]any) MockStep {
	return MockStep{Response: llm.CompletionResponse{
		ToolCalls:  []llm.ToolCall{{ID: id, Name: name, Parameters: params}},
		StopReason: "tool_use",
	}}
}

// Complete implements llm.LLMClient.
//
//nolint:gocritic // Request passed by value matches the interface
func (m *MockClient) Complete(_ context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, in)

	if len(m.steps) == 0 {
		return llm.CompletionResponse{Content: "done", StopReason: "end_turn"}, nil
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	if step.Err != nil {
		return llm.CompletionResponse{}, step.Err
	}
	return step.Response, nil
}

// Stream implements llm.LLMClient.
//
//nolint:gocritic // Request passed by value matches the interface
func (m *MockClient) Stream(ctx context.Context, in llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	resp, err := m.Complete(ctx, in)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.StreamChunk, 2)
	ch <- llm.StreamChunk{Content: resp.Content}
	ch <- llm.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

// GetModelName implements llm.LLMClient.
func (m *MockClient) GetModelName() string {
	return m.model
}

// RequestCount returns how many completions were requested.
func (m *MockClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
