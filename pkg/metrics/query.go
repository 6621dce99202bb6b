// Package metrics provides services for querying and aggregating metrics
// data from a Prometheus server.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// PipelineMetrics represents aggregated LLM usage for one pipeline.
type PipelineMetrics struct {
	Pipeline         string  `json:"pipeline"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost_usd"`
}

// QueryService provides methods to query metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetPipelineMetrics retrieves aggregated token and cost metrics for one
// pipeline across all of its agents.
func (q *QueryService) GetPipelineMetrics(ctx context.Context, pipeline string) (*PipelineMetrics, error) {
	metrics := &PipelineMetrics{
		Pipeline: pipeline,
	}

	promptQuery := fmt.Sprintf(`sum(llm_tokens_total{pipeline=%q, type="prompt"})`, pipeline)
	prompt, err := q.scalarQuery(ctx, promptQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	metrics.PromptTokens = int64(prompt)

	completionQuery := fmt.Sprintf(`sum(llm_tokens_total{pipeline=%q, type="completion"})`, pipeline)
	completion, err := q.scalarQuery(ctx, completionQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	metrics.CompletionTokens = int64(completion)
	metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens

	costQuery := fmt.Sprintf(`sum(llm_costs_total{pipeline=%q})`, pipeline)
	cost, err := q.scalarQuery(ctx, costQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query total cost: %w", err)
	}
	metrics.TotalCost = cost

	return metrics, nil
}

// GetPipelineMetricsByAgent retrieves metrics for one pipeline broken down
// by agent.
func (q *QueryService) GetPipelineMetricsByAgent(ctx context.Context, pipeline string) (map[string]*PipelineMetrics, error) {
	result := make(map[string]*PipelineMetrics)

	agentsQuery := fmt.Sprintf(`group by (agent) (llm_tokens_total{pipeline=%q})`, pipeline)
	agentsResult, _, err := q.queryAPI.Query(ctx, agentsQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}

	var agents []string
	if vector, ok := agentsResult.(model.Vector); ok {
		for _, sample := range vector {
			if agent, ok := sample.Metric["agent"]; ok {
				agents = append(agents, string(agent))
			}
		}
	}

	for _, agent := range agents {
		metrics := &PipelineMetrics{
			Pipeline: pipeline,
		}

		promptQuery := fmt.Sprintf(`sum(llm_tokens_total{pipeline=%q, agent=%q, type="prompt"})`, pipeline, agent)
		prompt, err := q.scalarQuery(ctx, promptQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to query prompt tokens for agent %s: %w", agent, err)
		}
		metrics.PromptTokens = int64(prompt)

		completionQuery := fmt.Sprintf(`sum(llm_tokens_total{pipeline=%q, agent=%q, type="completion"})`, pipeline, agent)
		completion, err := q.scalarQuery(ctx, completionQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to query completion tokens for agent %s: %w", agent, err)
		}
		metrics.CompletionTokens = int64(completion)
		metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens

		costQuery := fmt.Sprintf(`sum(llm_costs_total{pipeline=%q, agent=%q})`, pipeline, agent)
		cost, err := q.scalarQuery(ctx, costQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to query cost for agent %s: %w", agent, err)
		}
		metrics.TotalCost = cost

		result[agent] = metrics
	}

	return result, nil
}

// scalarQuery runs an instant query expected to yield a single-sample
// vector; an empty result reads as zero.
func (q *QueryService) scalarQuery(ctx context.Context, query string) (float64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value), nil
	}
	return 0, nil
}
