package mcpserver

import (
	"context"
	"fmt"

	"marketbot/pkg/crew"
	"marketbot/pkg/tools"
)

// Remote tool names exposed over MCP. Each maps to one pipeline entry point.
const (
	RemoteDailyContent  = "daily_content"
	RemoteSEOContent    = "seo_content"
	RemoteEmailSequence = "email_sequence"
	RemoteAnalytics     = "analytics_report"
	RemoteFullPipeline  = "full_pipeline"
)

// RemoteToolNames lists the exposed tools in a stable order.
//
//nolint:gochecknoglobals // Static tool catalog
var RemoteToolNames = []string{
	RemoteDailyContent, RemoteSEOContent, RemoteEmailSequence,
	RemoteAnalytics, RemoteFullPipeline,
}

// PipelineService is the subset of the pipeline layer the server dispatches
// to. Tests substitute a stub here.
type PipelineService interface {
	Content(ctx context.Context, niche string) (*crew.Result, error)
	SEO(ctx context.Context, topic string, articles int) (*crew.Result, error)
	Email(ctx context.Context, product, valueProposition string) (*crew.Result, error)
	Analytics(ctx context.Context) (*crew.Result, error)
	Full(ctx context.Context, niche, product, valueProposition string) (*crew.Result, error)
}

// remoteToolDefs returns the MCP tool catalog.
func remoteToolDefs() []tools.ToolDefinition {
	return []tools.ToolDefinition{
		{
			Name: RemoteDailyContent,
			Description: "Run daily content creation + social media scheduling pipeline. " +
				"Researches trends, creates platform-specific posts, and schedules them.",
			InputSchema: tools.InputSchema{
				Type: "object",
				Properties: map[string]tools.Property{
					"niche": {Type: "string", Description: "Target niche/industry (e.g., 'AI tools', 'fitness apps')"},
				},
				Required: []string{"niche"},
			},
		},
		{
			Name: RemoteSEOContent,
			Description: "Run SEO keyword research + article generation pipeline. " +
				"Finds long-tail keywords and creates SEO-optimized articles.",
			InputSchema: tools.InputSchema{
				Type: "object",
				Properties: map[string]tools.Property{
					"topic":        {Type: "string", Description: "Topic to create SEO content for"},
					"num_articles": {Type: "number", Description: "Number of articles to generate (default: 3)"},
				},
				Required: []string{"topic"},
			},
		},
		{
			Name: RemoteEmailSequence,
			Description: "Generate a 7-email nurture sequence for a product. " +
				"Creates welcome, value, and conversion emails.",
			InputSchema: tools.InputSchema{
				Type: "object",
				Properties: map[string]tools.Property{
					"product_name":      {Type: "string", Description: "Name of the product/service"},
					"value_proposition": {Type: "string", Description: "What makes this product valuable"},
				},
				Required: []string{"product_name"},
			},
		},
		{
			Name: RemoteAnalytics,
			Description: "Run daily analytics review. Analyzes all channels and sends " +
				"summary via Telegram.",
			InputSchema: tools.InputSchema{Type: "object"},
		},
		{
			Name: RemoteFullPipeline,
			Description: "Run the FULL marketing pipeline - all 5 agents: content creation, " +
				"social media scheduling, SEO, email sequences, and analytics.",
			InputSchema: tools.InputSchema{
				Type: "object",
				Properties: map[string]tools.Property{
					"niche":             {Type: "string", Description: "Target niche"},
					"product_name":      {Type: "string", Description: "Product name"},
					"value_proposition": {Type: "string", Description: "Value prop"},
				},
				Required: []string{"niche", "product_name"},
			},
		},
	}
}

// dispatchTool maps a remote tool call to a pipeline invocation and formats
// the result. Unknown names and pipeline failures come back as errors; the
// caller decides how to surface them.
func dispatchTool(ctx context.Context, pipelines PipelineService, name string, args map[string]any) (string, error) {
	switch name {
	case RemoteDailyContent:
		niche := stringArg(args, "niche", "AI and technology")
		res, err := pipelines.Content(ctx, niche)
		if err != nil {
			return "", err
		}
		return "# Daily Content Pipeline Complete\n\n" + res.Output, nil

	case RemoteSEOContent:
		topic := stringArg(args, "topic", "AI tools")
		articles := intArg(args, "num_articles", 3)
		res, err := pipelines.SEO(ctx, topic, articles)
		if err != nil {
			return "", err
		}
		return "# SEO Content Pipeline Complete\n\n" + res.Output, nil

	case RemoteEmailSequence:
		product := stringArg(args, "product_name", "")
		value := stringArg(args, "value_proposition", "")
		res, err := pipelines.Email(ctx, product, value)
		if err != nil {
			return "", err
		}
		return "# Email Sequence Created\n\n" + res.Output, nil

	case RemoteAnalytics:
		res, err := pipelines.Analytics(ctx)
		if err != nil {
			return "", err
		}
		return "# Analytics Report\n\n" + res.Output, nil

	case RemoteFullPipeline:
		niche := stringArg(args, "niche", "")
		product := stringArg(args, "product_name", "")
		value := stringArg(args, "value_proposition", "")
		res, err := pipelines.Full(ctx, niche, product, value)
		if err != nil {
			return "", err
		}
		return "# Full Marketing Pipeline Complete\n\n" + res.Output, nil

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
