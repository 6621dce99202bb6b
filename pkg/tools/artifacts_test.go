package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/pkg/artifact"
)

func execJSON(t *testing.T, tool Tool, args map[string]any) map[string]any {
	t.Helper()
	result, err := tool.Exec(context.Background(), args)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content), &parsed))
	return parsed
}

func TestSavePostToolWritesDraft(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "run1")
	tool := NewSavePostTool(store)

	parsed := execJSON(t, tool, map[string]any{
		"content":   "Check out our new feature!",
		"platform":  "twitter",
		"post_type": "thread",
	})
	assert.Equal(t, true, parsed["success"])

	path, ok := parsed["path"].(string)
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# TWITTER Post")
	assert.Contains(t, string(data), "Check out our new feature!")
	assert.Contains(t, filepath.Base(path), "run1")
}

func TestSaveArticleToolWritesFrontMatter(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "")
	tool := NewSaveArticleTool(store)

	parsed := execJSON(t, tool, map[string]any{
		"title":    "How to Choose a CRM",
		"content":  "## Intro\n\nBody text.",
		"keywords": "crm, small business",
	})
	assert.Equal(t, true, parsed["success"])

	data, err := os.ReadFile(parsed["path"].(string))
	require.NoError(t, err)
	assert.Contains(t, string(data), `title: "How to Choose a CRM"`)
	assert.Contains(t, string(data), `keywords: "crm, small business"`)
	assert.Contains(t, filepath.Base(parsed["path"].(string)), "how-to-choose-a-crm")
}

func TestSaveEmailToolSequencePosition(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "")
	tool := NewSaveEmailTool(store)

	// JSON tool arguments arrive as float64.
	parsed := execJSON(t, tool, map[string]any{
		"subject":           "Welcome aboard",
		"content":           "Glad to have you.",
		"sequence_position": float64(3),
	})
	assert.Equal(t, true, parsed["success"])
	assert.Equal(t, float64(3), parsed["position"])
	assert.Contains(t, filepath.Base(parsed["path"].(string)), "seq03-")
}

func TestSaveEmailToolDefaultsPosition(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "")
	tool := NewSaveEmailTool(store)

	parsed := execJSON(t, tool, map[string]any{
		"subject": "s",
		"content": "c",
	})
	assert.Equal(t, float64(1), parsed["position"])
	assert.Contains(t, filepath.Base(parsed["path"].(string)), "seq01-")
}

func TestSaveReportTool(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "")
	tool := NewSaveReportTool(store)

	parsed := execJSON(t, tool, map[string]any{"report": "All metrics up."})
	assert.Equal(t, true, parsed["success"])

	data, err := os.ReadFile(parsed["path"].(string))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Daily Marketing Report")
	assert.Contains(t, string(data), "All metrics up.")
}

func TestReadAnalyticsToolSections(t *testing.T) {
	dir := t.TempDir()
	analyticsDir := filepath.Join(dir, artifact.CategoryAnalytics)
	require.NoError(t, os.MkdirAll(analyticsDir, 0o755))
	snapshot := `{"social":{"followers":120},"email":{"open_rate":0.42}}`
	require.NoError(t, os.WriteFile(
		filepath.Join(analyticsDir, artifact.AnalyticsReportFile), []byte(snapshot), 0o644))

	store := artifact.NewStore(dir, "")
	tool := NewReadAnalyticsTool(store)

	all := execJSON(t, tool, map[string]any{})
	assert.Equal(t, true, all["success"])
	assert.Equal(t, "all", all["source"])
	assert.Contains(t, all["data"], "open_rate")

	social := execJSON(t, tool, map[string]any{"source": "social"})
	assert.Equal(t, "social", social["source"])
	assert.Contains(t, social["data"], "followers")
	assert.NotContains(t, social["data"], "open_rate")
}

func TestReadAnalyticsToolNoData(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "")
	tool := NewReadAnalyticsTool(store)

	parsed := execJSON(t, tool, map[string]any{"source": "all"})
	assert.Equal(t, false, parsed["success"])
	assert.Contains(t, parsed["error"], "no analytics data")
}

func TestArtifactToolsValidateArguments(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "")
	tests := []struct {
		name string
		tool Tool
		args map[string]any
	}{
		{"save_post missing content", NewSavePostTool(store), map[string]any{"platform": "twitter"}},
		{"save_post missing platform", NewSavePostTool(store), map[string]any{"content": "c"}},
		{"save_article missing title", NewSaveArticleTool(store), map[string]any{"content": "c"}},
		{"save_email missing subject", NewSaveEmailTool(store), map[string]any{"content": "c"}},
		{"save_report missing report", NewSaveReportTool(store), map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tool.Exec(context.Background(), tt.args)
			require.Error(t, err)
		})
	}
}
