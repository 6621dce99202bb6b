package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/pkg/artifact"
	"marketbot/pkg/config"
)

func testAgentContext(t *testing.T) AgentContext {
	t.Helper()
	return AgentContext{
		Config: config.Default(),
		Store:  artifact.NewStore(t.TempDir(), "test"),
	}
}

func TestRegistryContainsAllBindings(t *testing.T) {
	metas := ListTools()
	names := make(map[string]bool, len(metas))
	for _, m := range metas {
		names[m.Name] = true
	}

	expected := []string{
		ToolSearchTrends, ToolWebSearch, ToolKeywordResearch,
		ToolSchedulePost, ToolSavePost, ToolSaveArticle,
		ToolSendCampaign, ToolSaveEmail, ToolNotifyOwner,
		ToolReadAnalytics, ToolSaveReport,
	}
	require.Len(t, metas, len(expected))
	for _, name := range expected {
		assert.True(t, names[name], "missing tool %s", name)
	}
}

func TestProviderEnforcesAllowSet(t *testing.T) {
	provider := NewProvider(testAgentContext(t), []string{ToolSavePost, ToolSearchTrends})

	tool, err := provider.Get(ToolSavePost)
	require.NoError(t, err)
	assert.Equal(t, ToolSavePost, tool.Name())

	_, err = provider.Get(ToolSendCampaign)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestProviderCachesInstances(t *testing.T) {
	provider := NewProvider(testAgentContext(t), []string{ToolSavePost})

	first, err := provider.Get(ToolSavePost)
	require.NoError(t, err)
	second, err := provider.Get(ToolSavePost)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestProviderListOnlyAllowed(t *testing.T) {
	provider := NewProvider(testAgentContext(t), []string{ToolSaveEmail, ToolSendCampaign})
	metas := provider.List()
	require.Len(t, metas, 2)
	for _, m := range metas {
		assert.Contains(t, []string{ToolSaveEmail, ToolSendCampaign}, m.Name)
	}
}

func TestProviderUnknownTool(t *testing.T) {
	provider := NewProvider(testAgentContext(t), []string{"does_not_exist"})
	_, err := provider.Get("does_not_exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestAllFactoriesBuildWithoutCredentials(t *testing.T) {
	ctx := testAgentContext(t)
	for _, meta := range ListTools() {
		provider := NewProvider(ctx, []string{meta.Name})
		tool, err := provider.Get(meta.Name)
		require.NoError(t, err, "factory for %s", meta.Name)
		assert.Equal(t, meta.Name, tool.Name())
		def := tool.Definition()
		assert.Equal(t, "object", def.InputSchema.Type)
	}
}
