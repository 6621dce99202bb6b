// Package agent provides LLM client construction and the middleware stack
// shared by every crew agent.
package agent

import (
	"fmt"

	"marketbot/pkg/agent/internal/llmimpl/anthropic"
	"marketbot/pkg/agent/internal/llmimpl/google"
	"marketbot/pkg/agent/internal/llmimpl/ollama"
	"marketbot/pkg/agent/internal/llmimpl/openai"
	"marketbot/pkg/agent/llm"
	"marketbot/pkg/agent/middleware/metrics"
	"marketbot/pkg/agent/middleware/resilience/retry"
	"marketbot/pkg/config"
	"marketbot/pkg/logx"
)

// NewClient creates a raw LLM client for the configured model. The provider
// is inferred from the model name; DeepSeek rides the OpenAI-compatible
// client with its own base URL.
func NewClient(cfg config.LLMConfig) (llm.LLMClient, error) {
	provider := config.InferProvider(cfg.Model)

	switch provider {
	case config.ProviderOllama:
		return ollama.NewClient(cfg.OllamaHost, cfg.Model), nil
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key configured for model %s: set %s",
				cfg.Model, config.EnvAnthropicAPIKey)
		}
		return anthropic.NewClient(cfg.APIKey, cfg.Model), nil
	case config.ProviderGoogle:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key configured for model %s: set %s",
				cfg.Model, config.EnvGeminiAPIKey)
		}
		return google.NewClient(cfg.APIKey, cfg.Model), nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key configured for model %s: set %s",
				cfg.Model, config.EnvDeepSeekAPIKey)
		}
		return openai.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q for model %s", provider, cfg.Model)
	}
}

// NewClientWithMiddleware creates an LLM client wrapped with the standard
// middleware stack: metrics recording outermost, then transport retry.
func NewClientWithMiddleware(cfg config.LLMConfig, labels metrics.Labels, recorder metrics.Recorder, logger *logx.Logger) (llm.LLMClient, error) {
	base, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return llm.Chain(base,
		metrics.Middleware(recorder, nil, labels, logger),
		retry.Middleware(retry.NewPolicy(retry.DefaultConfig, nil)),
	), nil
}
