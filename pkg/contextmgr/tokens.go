package contextmgr

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter provides token counting for budget enforcement and metrics.
// All supported chat models are close enough to GPT-4 tokenization for
// budgeting purposes.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter creates a token counter. The model argument is accepted for
// future per-model codecs; every current model maps to the GPT-4 encoding.
func NewTokenCounter(model string) (*TokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}
	return &TokenCounter{codec: codec}, nil
}

// CountTokens returns the number of tokens in the given text. Falls back to a
// 4-chars-per-token estimate if the codec is unavailable.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.codec == nil {
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

//nolint:gochecknoglobals // Shared codec; tokenizer setup is not free
var (
	sharedCounter     *TokenCounter
	sharedCounterOnce sync.Once
)

// CountTokens counts tokens with a process-wide shared counter.
func CountTokens(text string) int {
	sharedCounterOnce.Do(func() {
		counter, err := NewTokenCounter("gpt-4")
		if err == nil {
			sharedCounter = counter
		}
	})
	return sharedCounter.CountTokens(text)
}
