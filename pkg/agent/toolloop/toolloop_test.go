package toolloop

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/pkg/agent"
	"marketbot/pkg/agent/llm"
	"marketbot/pkg/contextmgr"
	"marketbot/pkg/logx"
	"marketbot/pkg/tools"
)

// stubTool records its calls and returns a fixed result.
type stubTool struct {
	name   string
	result string
	err    error
	calls  []map[string]any
}

func (s *stubTool) Name() string { return s.name }

func (s *stubTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        s.name,
		Description: "stub",
		InputSchema: tools.InputSchema{Type: "object"},
	}
}

func (s *stubTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	s.calls = append(s.calls, args)
	if s.err != nil {
		return nil, s.err
	}
	return &tools.ExecResult{Content: s.result}, nil
}

// stubProvider serves a fixed tool set without the global registry.
type stubProvider struct {
	tools map[string]*stubTool
}

func (p *stubProvider) Get(name string) (tools.Tool, error) {
	tool, ok := p.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not available: %s", name)
	}
	return tool, nil
}

func (p *stubProvider) List() []tools.ToolMeta {
	metas := make([]tools.ToolMeta, 0, len(p.tools))
	for _, tool := range p.tools {
		def := tool.Definition()
		metas = append(metas, tools.ToolMeta{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return metas
}

func newTestLoop(client llm.LLMClient) *ToolLoop {
	return New(client, logx.NewLogger("toolloop-test"))
}

func TestRunPlainResponse(t *testing.T) {
	client := agent.NewMockClient(agent.MockResponse("hello world"))
	loop := newTestLoop(client)

	cm := contextmgr.New()
	cm.AddSystemMessage("you are a test agent")

	out, err := loop.Run(context.Background(), &Config{
		ContextManager: cm,
		ToolProvider:   &stubProvider{},
		InitialPrompt:  "say hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
	assert.Equal(t, 1, client.RequestCount())

	// System prompt and initial prompt reached the model.
	req := client.Requests[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "say hello", req.Messages[1].Content)
}

func TestRunExecutesToolAndFeedsResultBack(t *testing.T) {
	search := &stubTool{name: "web_search", result: `{"results":["a"]}`}
	provider := &stubProvider{tools: map[string]*stubTool{"web_search": search}}

	client := agent.NewMockClient(
		agent.MockToolCall("call_1", "web_search", map[string]any{"query": "go testing"}),
		agent.MockResponse("summary of findings"),
	)
	loop := newTestLoop(client)

	cm := contextmgr.New()
	out, err := loop.Run(context.Background(), &Config{
		ContextManager: cm,
		ToolProvider:   provider,
		InitialPrompt:  "research go testing",
	})
	require.NoError(t, err)
	assert.Equal(t, "summary of findings", out)
	assert.Equal(t, 2, client.RequestCount())

	require.Len(t, search.calls, 1)
	assert.Equal(t, "go testing", search.calls[0]["query"])

	// Second request carries the tool result as conversation text.
	second := client.Requests[1]
	var found bool
	for _, msg := range second.Messages {
		if msg.Role == llm.RoleUser && msg.Content == "[Tool result: web_search]\n{\"results\":[\"a\"]}" {
			found = true
		}
	}
	assert.True(t, found, "tool result should appear in the follow-up request")

	// Tool definitions were offered to the model.
	require.Len(t, second.Tools, 1)
	assert.Equal(t, "web_search", second.Tools[0].Name)
}

func TestRunToolErrorFedBackNotFatal(t *testing.T) {
	failing := &stubTool{name: "web_search", err: fmt.Errorf("upstream down")}
	provider := &stubProvider{tools: map[string]*stubTool{"web_search": failing}}

	client := agent.NewMockClient(
		agent.MockToolCall("call_1", "web_search", map[string]any{"query": "x"}),
		agent.MockResponse("giving up gracefully"),
	)
	loop := newTestLoop(client)

	cm := contextmgr.New()
	out, err := loop.Run(context.Background(), &Config{
		ContextManager: cm,
		ToolProvider:   provider,
		InitialPrompt:  "do work",
	})
	require.NoError(t, err)
	assert.Equal(t, "giving up gracefully", out)

	second := client.Requests[1]
	var found bool
	for _, msg := range second.Messages {
		if msg.Content == "[Tool error: web_search]\nupstream down" {
			found = true
		}
	}
	assert.True(t, found, "tool error should be fed back as a result")
}

func TestRunUnknownToolFedBack(t *testing.T) {
	provider := &stubProvider{tools: map[string]*stubTool{}}

	client := agent.NewMockClient(
		agent.MockToolCall("call_1", "no_such_tool", nil),
		agent.MockResponse("ok"),
	)
	loop := newTestLoop(client)

	out, err := loop.Run(context.Background(), &Config{
		ContextManager: contextmgr.New(),
		ToolProvider:   provider,
		InitialPrompt:  "go",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRunIterationLimit(t *testing.T) {
	search := &stubTool{name: "web_search", result: "more"}
	provider := &stubProvider{tools: map[string]*stubTool{"web_search": search}}

	client := agent.NewMockClient(
		agent.MockToolCall("c1", "web_search", nil),
		agent.MockToolCall("c2", "web_search", nil),
		agent.MockToolCall("c3", "web_search", nil),
	)
	loop := newTestLoop(client)

	_, err := loop.Run(context.Background(), &Config{
		ContextManager: contextmgr.New(),
		ToolProvider:   provider,
		InitialPrompt:  "loop forever",
		MaxIterations:  3,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum tool iterations")
	assert.Equal(t, 3, client.RequestCount())
}

func TestRunLLMErrorAborts(t *testing.T) {
	client := agent.NewMockClient(agent.MockStep{Err: fmt.Errorf("boom")})
	loop := newTestLoop(client)

	_, err := loop.Run(context.Background(), &Config{
		ContextManager: contextmgr.New(),
		ToolProvider:   &stubProvider{},
		InitialPrompt:  "go",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM completion failed")
}

func TestRunRequiresContextManager(t *testing.T) {
	loop := newTestLoop(agent.NewMockClient())
	_, err := loop.Run(context.Background(), &Config{ToolProvider: &stubProvider{}})
	require.Error(t, err)
}
