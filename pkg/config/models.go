package config

import "strings"

// Provider identifiers for LLM backends.
const (
	ProviderOpenAI    = "openai" // OpenAI-compatible APIs, including DeepSeek
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// ModelInfo contains static information about a known LLM model.
// This data is hardcoded in the application, not user-configurable.
type ModelInfo struct {
	Provider         string  // API provider
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int     // Maximum context window size in tokens
	MaxOutputTokens  int     // Maximum output tokens per request
}

// KnownModels registry contains pricing and provider information for models
// the crews are expected to run on. Unknown models are inferred by name.
//
//nolint:gochecknoglobals // Intentional global for static model registry
var KnownModels = map[string]ModelInfo{
	"deepseek-chat": {
		Provider:         ProviderOpenAI,
		InputCPM:         0.27,
		OutputCPM:        1.10,
		MaxContextTokens: 64000,
		MaxOutputTokens:  8192,
	},
	"deepseek-reasoner": {
		Provider:         ProviderOpenAI,
		InputCPM:         0.55,
		OutputCPM:        2.19,
		MaxContextTokens: 64000,
		MaxOutputTokens:  8192,
	},
	"gpt-4o": {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},
	"gpt-4o-mini": {
		Provider:         ProviderOpenAI,
		InputCPM:         0.15,
		OutputCPM:        0.6,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},
	"claude-sonnet-4-20250514": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"claude-3-5-haiku-20241022": {
		Provider:         ProviderAnthropic,
		InputCPM:         0.8,
		OutputCPM:        4.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"gemini-2.0-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.1,
		OutputCPM:        0.4,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  8192,
	},
}

// InferProvider maps a model name to its provider. Registry entries win;
// otherwise the name prefix decides. Names with an ollama-style tag suffix
// (e.g. "llama3.1:8b") resolve to the local ollama provider.
func InferProvider(model string) string {
	if info, ok := KnownModels[model]; ok {
		return info.Provider
	}

	switch {
	case strings.HasPrefix(model, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "gemini"):
		return ProviderGoogle
	case strings.HasPrefix(model, "gpt") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "deepseek"):
		return ProviderOpenAI
	case strings.Contains(model, ":"):
		return ProviderOllama
	default:
		return ProviderOpenAI
	}
}

// ModelCost returns the USD cost for a request against a known model.
// Unknown models cost zero; metrics still count their tokens.
func ModelCost(model string, promptTokens, completionTokens int) float64 {
	info, ok := KnownModels[model]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1e6*info.InputCPM + float64(completionTokens)/1e6*info.OutputCPM
}
