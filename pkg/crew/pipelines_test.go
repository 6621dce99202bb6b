package crew

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/pkg/agent"
	"marketbot/pkg/persistence"
)

func listFiles(t *testing.T, base, category string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(base, category))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func newTestPipelines(t *testing.T, f *scriptedFactory) (*Pipelines, string) {
	t.Helper()
	cfg := testConfig(t)
	runner := NewRunnerWithFactory(cfg, f.factory)
	return NewPipelines(cfg, runner, nil), cfg.OutputDir
}

func TestContentPipelineSelectsCrew(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{}}
	p, _ := newTestPipelines(t, f)

	res, err := p.Content(context.Background(), "fitness")
	require.NoError(t, err)
	assert.Equal(t, PipelineContent, res.Pipeline)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{AgentContent, AgentSocial}, f.invoked)
}

func TestSEOPipelineSelectsCrew(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{}}
	p, _ := newTestPipelines(t, f)

	_, err := p.SEO(context.Background(), "home workouts", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{AgentSEO}, f.invoked)
}

func TestAnalyticsPipelineSelectsCrew(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{}}
	p, _ := newTestPipelines(t, f)

	_, err := p.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{AgentAnalytics}, f.invoked)
}

func TestFullPipelineSelectsAllAgents(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{}}
	p, _ := newTestPipelines(t, f)

	_, err := p.Full(context.Background(), "fitness", "CoachApp", "train smarter")
	require.NoError(t, err)
	assert.Equal(t, []string{AgentContent, AgentSocial, AgentSEO,
		AgentEmail, AgentAnalytics}, f.invoked)
}

func TestEmailPipelineWritesArtifactReferencingProduct(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{
		AgentEmail: {
			agent.MockToolCall("c1", "save_email", map[string]any{
				"subject":           "Welcome to X",
				"content":           "Thanks for joining X. Here is what to expect.",
				"sequence_position": 1,
			}),
			agent.MockResponse("welcome email drafted"),
		},
	}}
	p, outputDir := newTestPipelines(t, f)

	res, err := p.Email(context.Background(), "X", "saves you an hour a day")
	require.NoError(t, err)
	assert.Equal(t, "welcome email drafted", res.Output)

	emails := listFiles(t, outputDir, "emails")
	require.Len(t, emails, 1)

	data, err := os.ReadFile(filepath.Join(outputDir, "emails", emails[0]))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, string(data), "X")
}

func TestPipelineParamValidation(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{}}
	p, _ := newTestPipelines(t, f)
	ctx := context.Background()

	_, err := p.Content(ctx, "")
	require.Error(t, err)

	_, err = p.SEO(ctx, "", 1)
	require.Error(t, err)

	_, err = p.SEO(ctx, "topic", -1)
	require.Error(t, err)

	_, err = p.Email(ctx, "", "value")
	require.Error(t, err)

	_, err = p.Full(ctx, "", "p", "v")
	require.Error(t, err)

	// No LLM calls happened for invalid parameters.
	assert.Empty(t, f.invoked)
}

func TestEmailPipelineValuePropositionOptional(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{}}
	p, _ := newTestPipelines(t, f)

	res, err := p.Email(context.Background(), "CoachApp", "")
	require.NoError(t, err)
	assert.Equal(t, PipelineEmail, res.Pipeline)
	assert.Equal(t, []string{AgentEmail}, f.invoked)
}

func TestFullPipelineValuePropositionOptional(t *testing.T) {
	f := &scriptedFactory{scripts: map[string][]agent.MockStep{}}
	p, _ := newTestPipelines(t, f)

	_, err := p.Full(context.Background(), "fitness", "CoachApp", "")
	require.NoError(t, err)
	assert.Equal(t, []string{AgentContent, AgentSocial, AgentSEO,
		AgentEmail, AgentAnalytics}, f.invoked)
}

func TestPipelineRecordsHistory(t *testing.T) {
	h, err := persistence.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	f := &scriptedFactory{scripts: map[string][]agent.MockStep{
		AgentAnalytics: {agent.MockResponse("report done")},
	}}
	cfg := testConfig(t)
	p := NewPipelines(cfg, NewRunnerWithFactory(cfg, f.factory), h)

	res, err := p.Analytics(context.Background())
	require.NoError(t, err)

	run, err := h.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusSuccess, run.Status)
	assert.Equal(t, "report done", run.Result)
	require.NotNil(t, run.FinishedAt)
}

func TestPipelineFailureRecordedAndSurfaced(t *testing.T) {
	h, err := persistence.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	f := &scriptedFactory{scripts: map[string][]agent.MockStep{
		AgentSEO: {{Err: assert.AnError}},
	}}
	cfg := testConfig(t)
	p := NewPipelines(cfg, NewRunnerWithFactory(cfg, f.factory), h)

	_, err = p.SEO(context.Background(), "topic", 1)
	require.Error(t, err)

	runs, err := h.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, persistence.StatusFailed, runs[0].Status)
}
