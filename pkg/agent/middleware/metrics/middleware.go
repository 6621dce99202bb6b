// Package metrics provides metrics middleware for LLM clients.
package metrics

import (
	"context"
	"time"

	"marketbot/pkg/agent/llm"
	"marketbot/pkg/agent/llmerrors"
	"marketbot/pkg/config"
	"marketbot/pkg/contextmgr"
	"marketbot/pkg/logx"
)

// Labels identify the pipeline run and agent an LLM chain serves.
type Labels struct {
	Pipeline string
	Agent    string
}

// UsageExtractor is a function that extracts token usage from a request and response.
type UsageExtractor func(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int)

// DefaultUsageExtractor counts tokens with the shared tiktoken counter.
func DefaultUsageExtractor(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int) {
	var promptText string
	for i := range req.Messages {
		promptText += req.Messages[i].Content + "\n"
	}
	return contextmgr.CountTokens(promptText), contextmgr.CountTokens(resp.Content)
}

// Middleware returns a middleware function that records metrics for LLM operations.
// It tracks request latency, token usage, cost, success/failure rates, and error types.
func Middleware(recorder Recorder, usageExtractor UsageExtractor, labels Labels, logger *logx.Logger) llm.Middleware {
	if usageExtractor == nil {
		usageExtractor = DefaultUsageExtractor
	}

	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()
				model := next.GetModelName()

				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				var promptTokens, completionTokens int
				var cost float64
				if err == nil {
					promptTokens, completionTokens = usageExtractor(req, resp)
					cost = config.ModelCost(model, promptTokens, completionTokens)
				}

				errorType := ""
				if err != nil {
					errorType = llmerrors.TypeOf(err).String()
				}

				recorder.ObserveRequest(
					model, labels.Pipeline, labels.Agent,
					promptTokens, completionTokens,
					cost,
					err == nil,
					errorType,
					duration,
				)

				if logger != nil {
					status := "success"
					if err != nil {
						status = "error"
					}
					logger.Info("LLM request: model=%s pipeline=%s agent=%s tokens=%d+%d status=%s duration=%dms",
						model, labels.Pipeline, labels.Agent,
						promptTokens, completionTokens, status, duration.Milliseconds())
				}

				return resp, err //nolint:wrapcheck // Middleware passes errors through unchanged
			},
			func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
				start := time.Now()
				model := next.GetModelName()

				ch, err := next.Stream(ctx, req)
				duration := time.Since(start)

				// Streaming only records setup latency and outcome. Counting
				// stream tokens would require consuming the whole channel.
				errorType := ""
				if err != nil {
					errorType = llmerrors.TypeOf(err).String()
				}

				recorder.ObserveRequest(
					model, labels.Pipeline, labels.Agent,
					0, 0, 0,
					err == nil,
					errorType,
					duration,
				)

				return ch, err //nolint:wrapcheck // Middleware passes errors through unchanged
			},
			func() string {
				return next.GetModelName()
			},
		)
	}
}
