package tools

import (
	"context"
	"fmt"

	"marketbot/pkg/artifact"
)

// Local artifact tools wrap the run's artifact store. They are always
// available regardless of SaaS credentials, so every crew has a fallback
// when a remote service is not configured.

// SavePostTool writes a social media post draft to the output directory.
type SavePostTool struct {
	store *artifact.Store
}

// NewSavePostTool creates a save-post tool over the given store.
func NewSavePostTool(store *artifact.Store) *SavePostTool {
	return &SavePostTool{store: store}
}

func createSavePostTool(ctx AgentContext) (Tool, error) {
	if ctx.Store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return NewSavePostTool(ctx.Store), nil
}

func (t *SavePostTool) Name() string { return ToolSavePost }

func (t *SavePostTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSavePost,
		Description: "Save a generated post to the local output directory " +
			"for review before publishing.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"content": {
					Type:        "string",
					Description: "Full post content, ready to publish",
				},
				"platform": {
					Type:        "string",
					Description: "Target platform",
					Enum:        []string{"twitter", "instagram", "linkedin", "facebook"},
				},
				"post_type": {
					Type:        "string",
					Description: "Kind of post (e.g. text, thread, carousel)",
				},
			},
			Required: []string{"content", "platform"},
		},
	}
}

// Exec saves the post draft.
func (t *SavePostTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("content is required and must be a string")
	}
	platform, ok := args["platform"].(string)
	if !ok || platform == "" {
		return nil, fmt.Errorf("platform is required and must be a string")
	}
	postType, _ := args["post_type"].(string)

	path, err := t.store.SavePost(platform, postType, content)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]any{
		"success":  true,
		"platform": platform,
		"path":     path,
	})
}

// SaveArticleTool writes an SEO article draft to the output directory.
type SaveArticleTool struct {
	store *artifact.Store
}

// NewSaveArticleTool creates a save-article tool over the given store.
func NewSaveArticleTool(store *artifact.Store) *SaveArticleTool {
	return &SaveArticleTool{store: store}
}

func createSaveArticleTool(ctx AgentContext) (Tool, error) {
	if ctx.Store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return NewSaveArticleTool(ctx.Store), nil
}

func (t *SaveArticleTool) Name() string { return ToolSaveArticle }

func (t *SaveArticleTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSaveArticle,
		Description: "Save an SEO-optimized article to the output directory. " +
			"Include the full article body in markdown.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"title": {
					Type:        "string",
					Description: "Article title",
				},
				"content": {
					Type:        "string",
					Description: "Full article body in markdown",
				},
				"keywords": {
					Type:        "string",
					Description: "Comma-separated target keywords",
				},
			},
			Required: []string{"title", "content"},
		},
	}
}

// Exec saves the article.
func (t *SaveArticleTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	title, ok := args["title"].(string)
	if !ok || title == "" {
		return nil, fmt.Errorf("title is required and must be a string")
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("content is required and must be a string")
	}
	keywords, _ := args["keywords"].(string)

	path, err := t.store.SaveArticle(title, keywords, content)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]any{
		"success": true,
		"title":   title,
		"path":    path,
	})
}

// SaveEmailTool writes a nurture sequence email draft to the output
// directory.
type SaveEmailTool struct {
	store *artifact.Store
}

// NewSaveEmailTool creates a save-email tool over the given store.
func NewSaveEmailTool(store *artifact.Store) *SaveEmailTool {
	return &SaveEmailTool{store: store}
}

func createSaveEmailTool(ctx AgentContext) (Tool, error) {
	if ctx.Store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return NewSaveEmailTool(ctx.Store), nil
}

func (t *SaveEmailTool) Name() string { return ToolSaveEmail }

func (t *SaveEmailTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSaveEmail,
		Description: "Save an email draft locally for review before sending. " +
			"Use sequence_position to order emails within a nurture sequence.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"subject": {
					Type:        "string",
					Description: "Email subject line",
				},
				"content": {
					Type:        "string",
					Description: "Full email body",
				},
				"sequence_position": {
					Type:        "integer",
					Description: "1-based position within the sequence",
				},
			},
			Required: []string{"subject", "content"},
		},
	}
}

// Exec saves the email draft. sequence_position arrives as a JSON number.
func (t *SaveEmailTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return nil, fmt.Errorf("subject is required and must be a string")
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("content is required and must be a string")
	}

	position := 1
	switch v := args["sequence_position"].(type) {
	case float64:
		position = int(v)
	case int:
		position = v
	}

	path, err := t.store.SaveEmail(position, subject, content)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]any{
		"success":  true,
		"subject":  subject,
		"position": position,
		"path":     path,
	})
}

// SaveReportTool writes the daily marketing report to the output directory.
type SaveReportTool struct {
	store *artifact.Store
}

// NewSaveReportTool creates a save-report tool over the given store.
func NewSaveReportTool(store *artifact.Store) *SaveReportTool {
	return &SaveReportTool{store: store}
}

func createSaveReportTool(ctx AgentContext) (Tool, error) {
	if ctx.Store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return NewSaveReportTool(ctx.Store), nil
}

func (t *SaveReportTool) Name() string { return ToolSaveReport }

func (t *SaveReportTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSaveReport,
		Description: "Save the daily marketing performance report. " +
			"Call this once the analysis is complete.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"report": {
					Type:        "string",
					Description: "Full report body in markdown",
				},
			},
			Required: []string{"report"},
		},
	}
}

// Exec saves the report.
func (t *SaveReportTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	report, ok := args["report"].(string)
	if !ok || report == "" {
		return nil, fmt.Errorf("report is required and must be a string")
	}

	path, err := t.store.SaveReport(report)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]any{
		"success": true,
		"path":    path,
	})
}

// ReadAnalyticsTool reads the latest analytics snapshot for the crews that
// need performance context.
type ReadAnalyticsTool struct {
	store *artifact.Store
}

// NewReadAnalyticsTool creates a read-analytics tool over the given store.
func NewReadAnalyticsTool(store *artifact.Store) *ReadAnalyticsTool {
	return &ReadAnalyticsTool{store: store}
}

func createReadAnalyticsTool(ctx AgentContext) (Tool, error) {
	if ctx.Store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	return NewReadAnalyticsTool(ctx.Store), nil
}

func (t *ReadAnalyticsTool) Name() string { return ToolReadAnalytics }

func (t *ReadAnalyticsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolReadAnalytics,
		Description: "Read the latest analytics data from saved reports. " +
			"Pass a source to read one section, or 'all' for everything.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"source": {
					Type:        "string",
					Description: "Analytics section to read",
					Enum:        []string{"all", "social", "email", "website"},
				},
			},
		},
	}
}

// Exec reads the snapshot. A missing snapshot is reported as a readable
// error result, not a tool failure.
func (t *ReadAnalyticsTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	source, _ := args["source"].(string)

	data, err := t.store.ReadAnalytics(source)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]any{
		"success": true,
		"source":  sourceOrAll(source),
		"data":    data,
	})
}

func sourceOrAll(source string) string {
	if source == "" {
		return "all"
	}
	return source
}
