package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"marketbot/pkg/artifact"
	"marketbot/pkg/config"
	"marketbot/pkg/logx"
	"marketbot/pkg/persistence"
)

// Pipeline names. These are the operations exposed by both the CLI and the
// tool server, and the values stored in run history.
const (
	PipelineContent   = "content"
	PipelineSEO       = "seo"
	PipelineEmail     = "email"
	PipelineAnalytics = "analytics"
	PipelineFull      = "full"
)

//nolint:gochecknoglobals // Prometheus collectors are process-wide
var pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pipeline_runs_total",
	Help: "Total pipeline runs by pipeline and status",
}, []string{"pipeline", "status"})

// Result is the outcome of one pipeline run.
type Result struct {
	RunID    string
	Pipeline string
	Output   string
	Duration time.Duration
}

// Pipelines exposes the named entry points. Each invocation is synchronous:
// it builds the crew, runs it to completion, and returns the final output.
type Pipelines struct {
	cfg     *config.Config
	runner  *Runner
	history *persistence.History
	logger  *logx.Logger
}

// NewPipelines creates the pipeline entry points. history may be nil to
// skip run recording.
func NewPipelines(cfg *config.Config, runner *Runner, history *persistence.History) *Pipelines {
	return &Pipelines{
		cfg:     cfg,
		runner:  runner,
		history: history,
		logger:  logx.NewLogger("pipelines"),
	}
}

// Content runs trend research plus social scheduling for a niche.
func (p *Pipelines) Content(ctx context.Context, niche string) (*Result, error) {
	if niche == "" {
		return nil, fmt.Errorf("niche cannot be empty")
	}
	c, err := New(
		[]Agent{ContentCreator(), SocialMediaManager()},
		[]Task{NewContentTask(niche, nil), NewSocialTask()},
	)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, PipelineContent, map[string]any{"niche": niche}, c)
}

// SEO runs keyword research and article generation for a topic.
func (p *Pipelines) SEO(ctx context.Context, topic string, articles int) (*Result, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if articles < 0 {
		return nil, fmt.Errorf("article count cannot be negative")
	}
	c, err := New([]Agent{SEOSpecialist()}, []Task{NewSEOTask(topic, articles)})
	if err != nil {
		return nil, err
	}
	return p.run(ctx, PipelineSEO, map[string]any{"topic": topic, "articles": articles}, c)
}

// Email runs the nurture sequence generation for a product. The value
// proposition is optional; the agent works from the product name alone
// when it is empty.
func (p *Pipelines) Email(ctx context.Context, product, valueProposition string) (*Result, error) {
	if product == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	c, err := New([]Agent{EmailSpecialist()}, []Task{NewEmailTask(product, valueProposition)})
	if err != nil {
		return nil, err
	}
	return p.run(ctx, PipelineEmail, map[string]any{
		"product": product, "value_proposition": valueProposition,
	}, c)
}

// Analytics runs the daily performance review.
func (p *Pipelines) Analytics(ctx context.Context) (*Result, error) {
	c, err := New([]Agent{AnalyticsStrategist()}, []Task{NewAnalyticsTask()})
	if err != nil {
		return nil, err
	}
	return p.run(ctx, PipelineAnalytics, map[string]any{}, c)
}

// Full runs all five tasks in order.
func (p *Pipelines) Full(ctx context.Context, niche, product, valueProposition string) (*Result, error) {
	if niche == "" {
		return nil, fmt.Errorf("niche cannot be empty")
	}
	if product == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	c, err := New(
		[]Agent{ContentCreator(), SocialMediaManager(), SEOSpecialist(),
			EmailSpecialist(), AnalyticsStrategist()},
		[]Task{
			NewContentTask(niche, nil),
			NewSocialTask(),
			NewSEOTask(niche, 0),
			NewEmailTask(product, valueProposition),
			NewAnalyticsTask(),
		},
	)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, PipelineFull, map[string]any{
		"niche": niche, "product": product, "value_proposition": valueProposition,
	}, c)
}

// run executes one crew under a fresh run ID and artifact store, recording
// the outcome in history and metrics.
func (p *Pipelines) run(ctx context.Context, pipeline string, params map[string]any, c *Crew) (*Result, error) {
	runID := uuid.NewString()
	shortID := runID[:8]
	started := time.Now()

	p.logger.Info("pipeline %s starting (run %s)", pipeline, shortID)
	p.recordStart(runID, pipeline, params, started)

	store := artifact.NewStore(p.cfg.OutputDir, shortID)
	output, err := p.runner.Kickoff(ctx, c, pipeline, store)
	duration := time.Since(started)

	if err != nil {
		p.logger.Error("pipeline %s failed after %.1fs: %v", pipeline, duration.Seconds(), err)
		p.recordFinish(runID, persistence.StatusFailed, err.Error())
		pipelineRuns.WithLabelValues(pipeline, persistence.StatusFailed).Inc()
		return nil, fmt.Errorf("pipeline %s failed: %w", pipeline, err)
	}

	p.logger.Info("pipeline %s completed in %.1fs (run %s)", pipeline, duration.Seconds(), shortID)
	p.recordFinish(runID, persistence.StatusSuccess, output)
	pipelineRuns.WithLabelValues(pipeline, persistence.StatusSuccess).Inc()

	return &Result{
		RunID:    runID,
		Pipeline: pipeline,
		Output:   output,
		Duration: duration,
	}, nil
}

// recordStart writes the run row; history failures are logged, never fatal.
func (p *Pipelines) recordStart(runID, pipeline string, params map[string]any, started time.Time) {
	if p.history == nil {
		return
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		encoded = []byte("{}")
	}
	if err := p.history.RecordStart(&persistence.Run{
		ID:        runID,
		Pipeline:  pipeline,
		Params:    string(encoded),
		StartedAt: started,
	}); err != nil {
		p.logger.Warn("failed to record run start: %v", err)
	}
}

func (p *Pipelines) recordFinish(runID, status, result string) {
	if p.history == nil {
		return
	}
	if err := p.history.RecordFinish(runID, status, result); err != nil {
		p.logger.Warn("failed to record run finish: %v", err)
	}
}
