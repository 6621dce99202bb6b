// Package toolloop provides a reusable abstraction for LLM tool calling
// loops. Every crew agent runs its task through the same loop.
package toolloop

import (
	"context"
	"fmt"
	"time"

	"marketbot/pkg/agent/llm"
	"marketbot/pkg/contextmgr"
	"marketbot/pkg/logx"
	"marketbot/pkg/tools"
)

// ToolProvider defines what the loop needs from a tool provider.
type ToolProvider interface {
	Get(name string) (tools.Tool, error)
	List() []tools.ToolMeta
}

// ToolLoop manages LLM interactions with tool calling: the iteration loop,
// tool execution, and context management.
type ToolLoop struct {
	llmClient llm.LLMClient
	logger    *logx.Logger
}

// New creates a new ToolLoop instance.
func New(llmClient llm.LLMClient, logger *logx.Logger) *ToolLoop {
	return &ToolLoop{llmClient: llmClient, logger: logger}
}

// Config defines how the tool loop behaves.
type Config struct {
	// ContextManager holds the conversation; the caller owns it and may
	// seed it with a system prompt and prior task output.
	ContextManager *contextmgr.ContextManager

	// ToolProvider supplies the tools this agent may call.
	ToolProvider ToolProvider

	// InitialPrompt is added as a user message before the first turn.
	// Optional when the context is pre-seeded.
	InitialPrompt string

	// MaxIterations caps tool call rounds. Defaults to 10.
	MaxIterations int

	// MaxTokens caps each LLM reply. Defaults to 4096.
	MaxTokens int

	// Temperature for every request in the loop.
	Temperature float32
}

// Run executes the tool loop and returns the final assistant text.
// Tool failures are fed back to the model as tool results so it can adapt;
// only LLM transport failures abort the loop.
func (tl *ToolLoop) Run(ctx context.Context, cfg *Config) (string, error) {
	if cfg.ContextManager == nil {
		return "", fmt.Errorf("ContextManager is required")
	}
	if cfg.ToolProvider == nil {
		return "", fmt.Errorf("ToolProvider is required")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	if cfg.InitialPrompt != "" {
		cfg.ContextManager.AddUserMessage(cfg.InitialPrompt)
	}

	toolsList := cfg.ToolProvider.List()
	toolDefs := make([]tools.ToolDefinition, len(toolsList))
	for i := range toolsList {
		toolDefs[i] = tools.ToolDefinition{
			Name:        toolsList[i].Name,
			Description: toolsList[i].Description,
			InputSchema: toolsList[i].InputSchema,
		}
	}

	for iteration := 0; iteration < cfg.MaxIterations; iteration++ {
		cfg.ContextManager.CompactIfNeeded()
		messages := buildMessages(cfg.ContextManager)

		req := llm.CompletionRequest{
			Messages:    messages,
			Tools:       toolDefs,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}

		tl.logger.Debug("LLM call to %s: %s, %d tools (iteration %d)",
			tl.llmClient.GetModelName(), cfg.ContextManager.Summary(), len(toolDefs), iteration+1)

		start := time.Now()
		resp, err := tl.llmClient.Complete(ctx, req)
		duration := time.Since(start)
		if err != nil {
			tl.logger.Error("LLM call failed after %.2fs: %v", duration.Seconds(), err)
			return "", fmt.Errorf("LLM completion failed: %w", err)
		}

		tl.logger.Debug("LLM call completed in %.2fs, %d chars, %d tool calls",
			duration.Seconds(), len(resp.Content), len(resp.ToolCalls))

		cfg.ContextManager.AddAssistantMessage(assistantTranscript(&resp))

		// No tool calls means the agent considers the task complete.
		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		for i := range resp.ToolCalls {
			call := &resp.ToolCalls[i]
			tl.logger.Info("executing tool: %s", call.Name)

			tool, err := cfg.ToolProvider.Get(call.Name)
			if err != nil {
				tl.logger.Error("failed to get tool %s: %v", call.Name, err)
				cfg.ContextManager.AddToolResult(call.Name, err.Error(), true)
				continue
			}

			start := time.Now()
			result, err := tool.Exec(ctx, call.Parameters)
			duration := time.Since(start)

			if err != nil {
				tl.logger.Error("tool %s failed after %.2fs: %v", call.Name, duration.Seconds(), err)
				cfg.ContextManager.AddToolResult(call.Name, err.Error(), true)
				continue
			}

			tl.logger.Debug("tool %s completed in %.2fs", call.Name, duration.Seconds())
			cfg.ContextManager.AddToolResult(call.Name, result.Content, false)
		}
	}

	tl.logger.Warn("maximum tool iterations (%d) reached", cfg.MaxIterations)
	return "", fmt.Errorf("maximum tool iterations (%d) exceeded", cfg.MaxIterations)
}

// buildMessages converts context manager messages to completion messages.
func buildMessages(cm *contextmgr.ContextManager) []llm.CompletionMessage {
	contextMessages := cm.GetMessages()
	messages := make([]llm.CompletionMessage, 0, len(contextMessages))
	for i := range contextMessages {
		messages = append(messages, llm.CompletionMessage{
			Role:    llm.CompletionRole(contextMessages[i].Role),
			Content: contextMessages[i].Content,
		})
	}
	return messages
}

// assistantTranscript renders a response for the context, noting tool calls
// so the model sees what it already requested on later turns.
func assistantTranscript(resp *llm.CompletionResponse) string {
	if len(resp.ToolCalls) == 0 {
		return resp.Content
	}
	transcript := resp.Content
	for i := range resp.ToolCalls {
		if transcript != "" {
			transcript += "\n"
		}
		transcript += fmt.Sprintf("[Calling tool %s]", resp.ToolCalls[i].Name)
	}
	return transcript
}
