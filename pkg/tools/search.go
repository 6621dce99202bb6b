package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"marketbot/pkg/config"
)

// Default endpoints for the search backends. Tests substitute httptest URLs.
const (
	TavilyBaseURL = "https://api.tavily.com"
	SerperBaseURL = "https://google.serper.dev"
)

// SearchResult represents a single search result from any provider.
type SearchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// SearchProvider defines the interface for web search backends.
type SearchProvider interface {
	// Name returns a human-readable name for the provider.
	Name() string
	// Search performs a web search and returns results.
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// =============================================================================
// Tavily provider
// =============================================================================

// TavilyProvider implements SearchProvider using the Tavily search API.
// Tavily specializes in current news and trend content.
type TavilyProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewTavilyProvider creates a Tavily provider against the production endpoint.
func NewTavilyProvider(apiKey string, client *http.Client) *TavilyProvider {
	return NewTavilyProviderWithBaseURL(apiKey, TavilyBaseURL, client)
}

// NewTavilyProviderWithBaseURL creates a Tavily provider with a custom
// endpoint, used by tests.
func NewTavilyProviderWithBaseURL(apiKey, baseURL string, client *http.Client) *TavilyProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &TavilyProvider{apiKey: apiKey, baseURL: baseURL, httpClient: client}
}

func (p *TavilyProvider) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search performs an advanced-depth Tavily search.
func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:      p.apiKey,
		Query:       query,
		SearchDepth: "advanced",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tavily response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, SearchResult{
			Title:   r.Title,
			Content: truncateContent(r.Content, 300),
			URL:     r.URL,
		})
	}
	return results, nil
}

// truncateContent cuts s to at most limit bytes, backing off to a rune
// boundary so a multi-byte character is never split.
func truncateContent(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// =============================================================================
// Serper provider
// =============================================================================

// SerperProvider implements SearchProvider using the Serper Google Search API.
type SerperProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewSerperProvider creates a Serper provider against the production endpoint.
func NewSerperProvider(apiKey string, client *http.Client) *SerperProvider {
	return NewSerperProviderWithBaseURL(apiKey, SerperBaseURL, client)
}

// NewSerperProviderWithBaseURL creates a Serper provider with a custom
// endpoint, used by tests.
func NewSerperProviderWithBaseURL(apiKey, baseURL string, client *http.Client) *SerperProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &SerperProvider{apiKey: apiKey, baseURL: baseURL, httpClient: client}
}

func (p *SerperProvider) Name() string { return "serper" }

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
	RelatedSearches []struct {
		Query string `json:"query"`
	} `json:"relatedSearches"`
	PeopleAlsoAsk []struct {
		Question string `json:"question"`
	} `json:"peopleAlsoAsk"`
}

// query issues a raw Serper search and returns the parsed response.
func (p *SerperProvider) query(ctx context.Context, q string, num int) (*serperResponse, error) {
	payload, err := json.Marshal(map[string]any{"q": q, "num": num})
	if err != nil {
		return nil, fmt.Errorf("failed to encode serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper API returned %d", resp.StatusCode)
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode serper response: %w", err)
	}
	return &parsed, nil
}

// Search performs a Serper Google search and maps organic hits.
func (p *SerperProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	parsed, err := p.query(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		results = append(results, SearchResult{Title: item.Title, Content: item.Snippet, URL: item.Link})
	}
	return results, nil
}

// Related returns related search queries and people-also-ask questions,
// used by keyword research.
func (p *SerperProvider) Related(ctx context.Context, query string, num int) ([]string, error) {
	parsed, err := p.query(ctx, query, num)
	if err != nil {
		return nil, err
	}

	var related []string
	for _, r := range parsed.RelatedSearches {
		if r.Query != "" {
			related = append(related, r.Query)
		}
	}
	for _, q := range parsed.PeopleAlsoAsk {
		if q.Question != "" {
			related = append(related, q.Question)
		}
	}
	return related, nil
}

// =============================================================================
// Search tools
// =============================================================================

// SearchTrendsTool lets agents research trending topics and current news.
type SearchTrendsTool struct {
	provider   SearchProvider
	maxResults int
}

// NewSearchTrendsTool creates a trend search tool. A nil provider produces
// an explicit not-configured error at call time.
func NewSearchTrendsTool(provider SearchProvider) *SearchTrendsTool {
	return &SearchTrendsTool{provider: provider, maxResults: 10}
}

func createSearchTrendsTool(ctx AgentContext) (Tool, error) {
	var provider SearchProvider
	if key := ctx.Config.Tools.TavilyAPIKey; key != "" {
		provider = NewTavilyProvider(key, ctx.httpClient())
	}
	return NewSearchTrendsTool(provider), nil
}

func (t *SearchTrendsTool) Name() string { return ToolSearchTrends }

func (t *SearchTrendsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSearchTrends,
		Description: "Search for trending topics and current news. " +
			"Use this to find what's trending in your niche right now.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Search query (e.g. 'AI marketing trends this week')",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Exec runs the trend search.
func (t *SearchTrendsTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required and must be a string")
	}

	if t.provider == nil {
		return errorResult("trend search not configured: set " + config.EnvTavilyAPIKey)
	}

	results, err := t.provider.Search(ctx, query, t.maxResults)
	if err != nil {
		return errorResult(fmt.Sprintf("search failed: %v", err))
	}

	return searchResults(query, t.provider.Name(), results)
}

// WebSearchTool lets agents search Google for forums, Reddit threads, and
// broad web content.
type WebSearchTool struct {
	provider   SearchProvider
	maxResults int
}

// NewWebSearchTool creates a web search tool. A nil provider produces an
// explicit not-configured error at call time.
func NewWebSearchTool(provider SearchProvider) *WebSearchTool {
	return &WebSearchTool{provider: provider, maxResults: 10}
}

func createWebSearchTool(ctx AgentContext) (Tool, error) {
	var provider SearchProvider
	if key := ctx.Config.Tools.SerperAPIKey; key != "" {
		provider = NewSerperProvider(key, ctx.httpClient())
	}
	return NewWebSearchTool(provider), nil
}

func (t *WebSearchTool) Name() string { return ToolWebSearch }

func (t *WebSearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolWebSearch,
		Description: "Search Google for forums, Reddit threads, and broad web content. " +
			"Great for finding what real people are discussing.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Search query string",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Exec runs the web search.
func (t *WebSearchTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required and must be a string")
	}

	if t.provider == nil {
		return errorResult("web search not configured: set " + config.EnvSerperAPIKey)
	}

	results, err := t.provider.Search(ctx, query, t.maxResults)
	if err != nil {
		return errorResult(fmt.Sprintf("search failed: %v", err))
	}

	return searchResults(query, t.provider.Name(), results)
}

// searchResults builds the JSON result payload shared by both search tools.
func searchResults(query, provider string, results []SearchResult) (*ExecResult, error) {
	response := map[string]any{
		"success":      true,
		"query":        query,
		"provider":     provider,
		"result_count": len(results),
		"results":      results,
	}
	if len(results) == 0 {
		response["note"] = "No results found. Try a different search query."
	}
	return jsonResult(response)
}

// jsonResult marshals a response map into an ExecResult.
func jsonResult(response map[string]any) (*ExecResult, error) {
	content, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &ExecResult{Content: string(content)}, nil
}

// errorResult creates an error result response the agent can read.
func errorResult(errMsg string) (*ExecResult, error) {
	return jsonResult(map[string]any{
		"success": false,
		"error":   errMsg,
	})
}
