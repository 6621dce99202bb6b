// Package contextmgr manages conversation context for agent LLM loops:
// message accumulation, token counting, and compaction when the window
// approaches the model's context limit.
package contextmgr

import (
	"fmt"
	"strings"
)

// Message is a single role/content pair in the conversation context.
// Tool results are stored as user messages with a formatted prefix, which
// every provider backend accepts.
type Message struct {
	Role    string
	Content string
}

// ContextManager manages conversation context and token counting.
// Not safe for concurrent use; each agent run owns its own instance.
type ContextManager struct {
	messages         []Message
	maxContextTokens int
	maxReplyTokens   int
}

// New creates a context manager with no compaction limit.
func New() *ContextManager {
	return &ContextManager{messages: make([]Message, 0)}
}

// NewWithLimits creates a context manager that compacts when the estimated
// window (current + expected reply) would exceed maxContextTokens.
func NewWithLimits(maxContextTokens, maxReplyTokens int) *ContextManager {
	return &ContextManager{
		messages:         make([]Message, 0),
		maxContextTokens: maxContextTokens,
		maxReplyTokens:   maxReplyTokens,
	}
}

// AddMessage stores a role/content pair in the context.
func (cm *ContextManager) AddMessage(role, content string) {
	cm.messages = append(cm.messages, Message{Role: role, Content: content})
}

// AddSystemMessage stores a system prompt.
func (cm *ContextManager) AddSystemMessage(content string) {
	cm.AddMessage("system", content)
}

// AddUserMessage stores a user message.
func (cm *ContextManager) AddUserMessage(content string) {
	cm.AddMessage("user", content)
}

// AddAssistantMessage stores an assistant response.
func (cm *ContextManager) AddAssistantMessage(content string) {
	cm.AddMessage("assistant", content)
}

// AddToolResult stores the outcome of a tool execution as a user message so
// the model sees it on the next turn.
func (cm *ContextManager) AddToolResult(toolName, content string, isError bool) {
	label := "Tool result"
	if isError {
		label = "Tool error"
	}
	cm.AddMessage("user", fmt.Sprintf("[%s: %s]\n%s", label, toolName, content))
}

// CountTokens returns the token count of the full context.
func (cm *ContextManager) CountTokens() int {
	total := 0
	for i := range cm.messages {
		total += CountTokens(cm.messages[i].Content)
	}
	return total
}

// CompactIfNeeded drops old messages when the window would overflow.
// The first message (system prompt) is always preserved.
func (cm *ContextManager) CompactIfNeeded() {
	if cm.maxContextTokens <= 0 {
		return
	}
	target := cm.maxContextTokens - cm.maxReplyTokens
	if target <= 0 {
		return
	}

	for cm.CountTokens() > target && len(cm.messages) > 2 {
		// Drop the oldest non-system message.
		cm.messages = append(cm.messages[:1], cm.messages[2:]...)
	}
}

// GetMessages returns a copy of all messages in the context.
func (cm *ContextManager) GetMessages() []Message {
	result := make([]Message, len(cm.messages))
	copy(result, cm.messages)
	return result
}

// MessageCount returns the number of messages in the context.
func (cm *ContextManager) MessageCount() int {
	return len(cm.messages)
}

// Clear removes all messages from the context.
func (cm *ContextManager) Clear() {
	cm.messages = cm.messages[:0]
}

// Summary returns a brief description of the context state for logging.
func (cm *ContextManager) Summary() string {
	if len(cm.messages) == 0 {
		return "empty context"
	}

	counts := make(map[string]int)
	for i := range cm.messages {
		counts[cm.messages[i].Role]++
	}

	parts := make([]string, 0, len(counts))
	for _, role := range []string{"system", "user", "assistant"} {
		if n := counts[role]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", role, n))
		}
	}
	return fmt.Sprintf("%d messages (%s), ~%d tokens",
		len(cm.messages), strings.Join(parts, ", "), cm.CountTokens())
}
