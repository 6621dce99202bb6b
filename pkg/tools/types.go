// Package tools provides the tool bindings agents use to reach external
// services, plus the registry that exposes them to crews and the MCP server.
package tools

import "context"

// Tool is the interface implemented by every tool binding.
type Tool interface {
	// Name returns the registry name of the tool.
	Name() string
	// Definition returns the schema shown to the LLM.
	Definition() ToolDefinition
	// Exec runs the tool. Upstream API failures are usually reported inside
	// the ExecResult so the agent can react; a non-nil error means the tool
	// could not run at all (bad arguments, missing configuration).
	Exec(ctx context.Context, args map[string]any) (*ExecResult, error)
}

// ToolDefinition describes a tool to the LLM.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema is a JSON-schema-shaped description of tool parameters.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single schema property.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// ExecResult is the outcome of a tool execution. Content carries the text
// (often JSON) fed back to the agent as the tool result.
type ExecResult struct {
	Content string `json:"content"`
}

// Registry names for every tool binding.
const (
	ToolSearchTrends    = "search_trends"
	ToolWebSearch       = "web_search"
	ToolKeywordResearch = "keyword_research"
	ToolSchedulePost    = "schedule_post"
	ToolSavePost        = "save_post"
	ToolSaveArticle     = "save_article"
	ToolSendCampaign    = "send_campaign"
	ToolSaveEmail       = "save_email"
	ToolNotifyOwner     = "notify_owner"
	ToolReadAnalytics   = "read_analytics"
	ToolSaveReport      = "save_report"
)
