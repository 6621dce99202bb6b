package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseClient(tag string, log *[]string) LLMClient {
	return WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			*log = append(*log, tag)
			return CompletionResponse{Content: tag}, nil
		},
		func(_ context.Context, _ CompletionRequest) (<-chan StreamChunk, error) {
			ch := make(chan StreamChunk, 1)
			ch <- StreamChunk{Content: tag, Done: true}
			close(ch)
			return ch, nil
		},
		func() string { return tag },
	)
}

func tagging(tag string, log *[]string) Middleware {
	return func(next LLMClient) LLMClient {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				*log = append(*log, tag)
				return next.Complete(ctx, req)
			},
			next.Stream,
			next.GetModelName,
		)
	}
}

func TestChainOrder(t *testing.T) {
	var log []string
	client := Chain(baseClient("base", &log), tagging("outer", &log), tagging("inner", &log))

	resp, err := client.Complete(context.Background(), NewCompletionRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "base", resp.Content)
	assert.Equal(t, []string{"outer", "inner", "base"}, log)
	assert.Equal(t, "base", client.GetModelName())
}

func TestChainNoMiddleware(t *testing.T) {
	var log []string
	base := baseClient("base", &log)
	assert.Equal(t, base, Chain(base))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{ModelName: "deepseek-chat", MaxTokens: 4096, Temperature: 0.7}, ""},
		{"missing model", Config{MaxTokens: 100}, "model name"},
		{"zero max tokens", Config{ModelName: "m"}, "max tokens"},
		{"temperature too high", Config{ModelName: "m", MaxTokens: 1, Temperature: 2.5}, "temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
