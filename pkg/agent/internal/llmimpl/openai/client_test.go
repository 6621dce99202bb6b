package openai

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/pkg/agent/llm"
	"marketbot/pkg/tools"
)

func TestNewClientModelName(t *testing.T) {
	client := NewClient("test-key", "deepseek-chat", "https://api.deepseek.com")
	require.NotNil(t, client)
	assert.Equal(t, "deepseek-chat", client.GetModelName())
}

func TestBuildParamsMessages(t *testing.T) {
	c := &Client{model: "deepseek-chat"}
	params := c.buildParams(llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			{Role: llm.RoleSystem, Content: "You are a marketer"},
			{Role: llm.RoleUser, Content: "Write a post"},
			{Role: llm.RoleAssistant, Content: "Here it is"},
		},
		MaxTokens:   2048,
		Temperature: 0.7,
	})

	assert.Equal(t, openai.ChatModel("deepseek-chat"), params.Model)
	require.Len(t, params.Messages, 3)
	assert.NotNil(t, params.Messages[0].OfSystem)
	assert.NotNil(t, params.Messages[1].OfUser)
	assert.NotNil(t, params.Messages[2].OfAssistant)
	assert.Empty(t, params.Tools)
}

func TestBuildParamsTools(t *testing.T) {
	c := &Client{model: "deepseek-chat"}
	params := c.buildParams(llm.CompletionRequest{
		Messages: []llm.CompletionMessage{{Role: llm.RoleUser, Content: "go"}},
		Tools: []tools.ToolDefinition{
			{
				Name:        "schedule_post",
				Description: "Queue a social media post",
				InputSchema: tools.InputSchema{
					Type: "object",
					Properties: map[string]tools.Property{
						"text": {Type: "string", Description: "Post text"},
						"platform": {
							Type: "string",
							Enum: []string{"twitter", "instagram", "linkedin"},
						},
					},
					Required: []string{"text", "platform"},
				},
			},
		},
	})

	require.Len(t, params.Tools, 1)
	fn := params.Tools[0].Function
	assert.Equal(t, "schedule_post", fn.Name)
	assert.Equal(t, "Queue a social media post", fn.Description.Value)

	assert.Equal(t, "object", fn.Parameters["type"])
	assert.Equal(t, []string{"text", "platform"}, fn.Parameters["required"])

	properties, ok := fn.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	textSchema, ok := properties["text"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", textSchema["type"])
	assert.Equal(t, "Post text", textSchema["description"])
	platformSchema, ok := properties["platform"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, platformSchema["enum"], 3)
}

func TestConvertPropertySchema(t *testing.T) {
	tests := []struct {
		name string
		prop tools.Property
		want map[string]any
	}{
		{
			name: "string with description",
			prop: tools.Property{Type: "string", Description: "A value"},
			want: map[string]any{"type": "string", "description": "A value"},
		},
		{
			name: "array of strings",
			prop: tools.Property{Type: "array", Items: &tools.Property{Type: "string"}},
			want: map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		{
			name: "enum",
			prop: tools.Property{Type: "string", Enum: []string{"a", "b"}},
			want: map[string]any{"type": "string", "enum": []string{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertPropertySchema(&tt.prop))
		})
	}
}
