package ollama

import (
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/pkg/agent/llm"
	"marketbot/pkg/tools"
)

// makeToolCallArgs creates a ToolCallFunctionArguments from a map for testing.
func makeToolCallArgs(m map[string]any) api.ToolCallFunctionArguments {
	args := api.NewToolCallFunctionArguments()
	for k, v := range m {
		args.Set(k, v)
	}
	return args
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		hostURL string
		model   string
	}{
		{
			name:    "valid host and model",
			hostURL: "http://localhost:11434",
			model:   "llama3.1:8b",
		},
		{
			name:    "empty host uses default",
			hostURL: "",
			model:   "mistral:7b",
		},
		{
			name:    "invalid URL falls back to default",
			hostURL: "://not-a-valid-url",
			model:   "phi4:latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.hostURL, tt.model)
			require.NotNil(t, client)
			assert.Equal(t, tt.model, client.GetModelName())
		})
	}
}

func TestConvertTools(t *testing.T) {
	toolDefs := []tools.ToolDefinition{
		{
			Name:        "keyword_research",
			Description: "Find long-tail keywords for a topic",
			InputSchema: tools.InputSchema{
				Type: "object",
				Properties: map[string]tools.Property{
					"topic": {
						Type:        "string",
						Description: "Seed topic",
					},
					"platform": {
						Type:        "string",
						Description: "Target platform",
						Enum:        []string{"twitter", "instagram", "linkedin"},
					},
				},
				Required: []string{"topic"},
			},
		},
	}

	result := convertTools(toolDefs)
	require.Len(t, result, 1)

	tool := result[0]
	assert.Equal(t, "function", tool.Type)
	assert.Equal(t, "keyword_research", tool.Function.Name)
	assert.Equal(t, "object", tool.Function.Parameters.Type)
	assert.Equal(t, []string{"topic"}, tool.Function.Parameters.Required)

	topicProp, ok := tool.Function.Parameters.Properties.Get("topic")
	require.True(t, ok, "should have topic property")
	assert.Equal(t, "Seed topic", topicProp.Description)

	platformProp, ok := tool.Function.Parameters.Properties.Get("platform")
	require.True(t, ok, "should have platform property")
	assert.Len(t, platformProp.Enum, 3)
}

func TestConvertProperty(t *testing.T) {
	tests := []struct {
		name     string
		prop     tools.Property
		wantType string
		wantEnum int
	}{
		{
			name:     "simple string property",
			prop:     tools.Property{Type: "string", Description: "A string"},
			wantType: "string",
		},
		{
			name:     "property with enum",
			prop:     tools.Property{Type: "string", Enum: []string{"a", "b"}},
			wantType: "string",
			wantEnum: 2,
		},
		{
			name:     "integer property",
			prop:     tools.Property{Type: "integer", Description: "A count"},
			wantType: "integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertProperty(&tt.prop)
			assert.Equal(t, api.PropertyType{tt.wantType}, result.Type)
			assert.Equal(t, tt.prop.Description, result.Description)
			assert.Len(t, result.Enum, tt.wantEnum)
		})
	}
}

func TestConvertPropertyNested(t *testing.T) {
	prop := tools.Property{
		Type: "object",
		Properties: map[string]*tools.Property{
			"name":  {Type: "string"},
			"count": {Type: "integer"},
		},
	}

	result := convertProperty(&prop)
	require.NotNil(t, result.Properties)
	assert.Equal(t, 2, result.Properties.Len())

	nameProp, ok := result.Properties.Get("name")
	require.True(t, ok)
	assert.Equal(t, api.PropertyType{"string"}, nameProp.Type)
}

func TestConvertToolCalls(t *testing.T) {
	tests := []struct {
		name  string
		calls []api.ToolCall
		want  []llm.ToolCall
	}{
		{
			name:  "no calls",
			calls: nil,
			want:  nil,
		},
		{
			name: "call with ID and arguments",
			calls: []api.ToolCall{
				{
					ID: "call_abc",
					Function: api.ToolCallFunction{
						Name:      "web_search",
						Arguments: makeToolCallArgs(map[string]any{"query": "home gyms"}),
					},
				},
			},
			want: []llm.ToolCall{
				{
					ID:         "call_abc",
					Name:       "web_search",
					Parameters: map[string]any{"query": "home gyms"},
				},
			},
		},
		{
			name: "call without ID gets positional one",
			calls: []api.ToolCall{
				{
					Function: api.ToolCallFunction{
						Name:      "save_post",
						Arguments: makeToolCallArgs(map[string]any{"platform": "twitter"}),
					},
				},
			},
			want: []llm.ToolCall{
				{
					ID:         "call_0",
					Name:       "save_post",
					Parameters: map[string]any{"platform": "twitter"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertToolCalls(tt.calls)
			require.Len(t, result, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.ID, result[i].ID)
				assert.Equal(t, want.Name, result[i].Name)
				assert.Equal(t, want.Parameters, result[i].Parameters)
			}
		})
	}
}

func TestStopReason(t *testing.T) {
	tests := []struct {
		name string
		resp api.ChatResponse
		want string
	}{
		{name: "not done", resp: api.ChatResponse{Done: false}, want: "incomplete"},
		{name: "stop", resp: api.ChatResponse{Done: true, DoneReason: "stop"}, want: "end_turn"},
		{name: "empty reason", resp: api.ChatResponse{Done: true}, want: "end_turn"},
		{name: "length", resp: api.ChatResponse{Done: true, DoneReason: "length"}, want: "max_tokens"},
		{name: "other reason", resp: api.ChatResponse{Done: true, DoneReason: "tool_use"}, want: "tool_use"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stopReason(&tt.resp))
		})
	}
}
