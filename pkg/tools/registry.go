package tools

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"marketbot/pkg/artifact"
	"marketbot/pkg/config"
)

// AgentContext carries the dependencies tool factories need. One context is
// created per pipeline run so each run gets its own artifact store.
type AgentContext struct {
	Config     *config.Config
	Store      *artifact.Store
	HTTPClient *http.Client
}

// httpClient returns the context's HTTP client, or a default with the
// timeout every SaaS binding uses.
func (c AgentContext) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// ToolFactory creates a tool instance configured for a specific agent context.
type ToolFactory func(ctx AgentContext) (Tool, error)

// ToolMeta contains metadata about a tool for documentation and discovery.
type ToolMeta struct {
	Name        string
	Description string
	InputSchema InputSchema
}

// toolDescriptor contains the factory and metadata for a tool.
type toolDescriptor struct {
	meta    ToolMeta
	factory ToolFactory
}

// immutableRegistry is the global, read-only tool registry.
type immutableRegistry struct {
	mu     sync.RWMutex
	sealed bool
	tools  map[string]toolDescriptor
}

//nolint:gochecknoglobals // Factory pattern requires global registry
var globalRegistry = &immutableRegistry{
	tools: make(map[string]toolDescriptor),
}

// Register adds a tool factory to the global registry.
// Panics if called after the registry is sealed.
func Register(name string, factory ToolFactory, meta *ToolMeta) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if globalRegistry.sealed {
		panic(fmt.Sprintf("tool registry sealed - cannot register tool '%s'", name))
	}

	globalRegistry.tools[name] = toolDescriptor{
		meta:    *meta,
		factory: factory,
	}
}

// Seal prevents further tool registrations.
// Called automatically when the first ToolProvider is created.
func Seal() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.sealed = true
}

// ListTools returns metadata for all registered tools.
func ListTools() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(globalRegistry.tools))
	for _, desc := range globalRegistry.tools {
		result = append(result, desc.meta)
	}
	return result
}

// ToolProvider creates and caches tool instances for one agent context,
// restricted to that agent's allowed tool set.
type ToolProvider struct {
	ctx      AgentContext
	tools    map[string]Tool
	allowSet map[string]struct{}
	mu       sync.Mutex
}

// NewProvider creates a ToolProvider for the given context and allowed
// tools. Automatically seals the global registry on first use.
func NewProvider(ctx AgentContext, allowedTools []string) *ToolProvider {
	Seal()

	allowSet := make(map[string]struct{}, len(allowedTools))
	for _, name := range allowedTools {
		allowSet[name] = struct{}{}
	}

	return &ToolProvider{
		ctx:      ctx,
		tools:    make(map[string]Tool),
		allowSet: allowSet,
	}
}

// Get retrieves a tool instance, creating it lazily if needed.
func (p *ToolProvider) Get(name string) (Tool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.allowSet[name]; !ok {
		return nil, fmt.Errorf("tool '%s' not allowed in this context", name)
	}

	if tool, ok := p.tools[name]; ok {
		return tool, nil
	}

	globalRegistry.mu.RLock()
	desc, exists := globalRegistry.tools[name]
	globalRegistry.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("tool '%s' not registered", name)
	}

	tool, err := desc.factory(p.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool '%s': %w", name, err)
	}

	p.tools[name] = tool
	return tool, nil
}

// List returns metadata for all allowed tools.
func (p *ToolProvider) List() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(p.allowSet))
	for name := range p.allowSet {
		if desc, ok := globalRegistry.tools[name]; ok {
			result = append(result, desc.meta)
		}
	}
	return result
}

// init registers all tool bindings in the global registry.
//
//nolint:gochecknoinits // Factory pattern requires init() for tool registration
func init() {
	Register(ToolSearchTrends, createSearchTrendsTool, &ToolMeta{
		Name:        ToolSearchTrends,
		Description: "Search for trending topics and current news in a niche",
		InputSchema: NewSearchTrendsTool(nil).Definition().InputSchema,
	})

	Register(ToolWebSearch, createWebSearchTool, &ToolMeta{
		Name:        ToolWebSearch,
		Description: "Search Google for forums, Reddit threads, and broad web content",
		InputSchema: NewWebSearchTool(nil).Definition().InputSchema,
	})

	Register(ToolKeywordResearch, createKeywordResearchTool, &ToolMeta{
		Name:        ToolKeywordResearch,
		Description: "Find long-tail keywords for a topic via search suggestions and related searches",
		InputSchema: (&KeywordResearchTool{}).Definition().InputSchema,
	})

	Register(ToolSchedulePost, createSchedulePostTool, &ToolMeta{
		Name:        ToolSchedulePost,
		Description: "Queue a social media post via Buffer",
		InputSchema: (&SchedulePostTool{}).Definition().InputSchema,
	})

	Register(ToolSavePost, createSavePostTool, &ToolMeta{
		Name:        ToolSavePost,
		Description: "Save a generated post to the local output directory for review",
		InputSchema: (&SavePostTool{}).Definition().InputSchema,
	})

	Register(ToolSaveArticle, createSaveArticleTool, &ToolMeta{
		Name:        ToolSaveArticle,
		Description: "Save an SEO-optimized article to the output directory",
		InputSchema: (&SaveArticleTool{}).Definition().InputSchema,
	})

	Register(ToolSendCampaign, createSendCampaignTool, &ToolMeta{
		Name:        ToolSendCampaign,
		Description: "Create an email campaign via MailerLite",
		InputSchema: (&SendCampaignTool{}).Definition().InputSchema,
	})

	Register(ToolSaveEmail, createSaveEmailTool, &ToolMeta{
		Name:        ToolSaveEmail,
		Description: "Save an email draft locally for review before sending",
		InputSchema: (&SaveEmailTool{}).Definition().InputSchema,
	})

	Register(ToolNotifyOwner, createNotifyOwnerTool, &ToolMeta{
		Name:        ToolNotifyOwner,
		Description: "Send a notification to the owner via Telegram",
		InputSchema: (&NotifyOwnerTool{}).Definition().InputSchema,
	})

	Register(ToolReadAnalytics, createReadAnalyticsTool, &ToolMeta{
		Name:        ToolReadAnalytics,
		Description: "Read the latest analytics data from saved reports",
		InputSchema: (&ReadAnalyticsTool{}).Definition().InputSchema,
	})

	Register(ToolSaveReport, createSaveReportTool, &ToolMeta{
		Name:        ToolSaveReport,
		Description: "Save the daily marketing performance report",
		InputSchema: (&SaveReportTool{}).Definition().InputSchema,
	})
}
