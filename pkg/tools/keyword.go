package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"marketbot/pkg/logx"
)

// GoogleSuggestBaseURL is the free autocomplete endpoint used as the first
// keyword source. Tests substitute an httptest URL.
const GoogleSuggestBaseURL = "https://suggestqueries.google.com"

// KeywordResearchTool finds long-tail keywords for a topic by combining
// Google autocomplete suggestions with Serper related searches and
// people-also-ask questions. Partial upstream failures degrade to the
// sources that responded.
type KeywordResearchTool struct {
	httpClient     *http.Client
	serper         *SerperProvider
	suggestBaseURL string
	logger         *logx.Logger
}

// NewKeywordResearchTool creates a keyword research tool. serper may be nil;
// the tool then relies on autocomplete alone.
func NewKeywordResearchTool(serper *SerperProvider, suggestBaseURL string, client *http.Client) *KeywordResearchTool {
	if suggestBaseURL == "" {
		suggestBaseURL = GoogleSuggestBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &KeywordResearchTool{
		httpClient:     client,
		serper:         serper,
		suggestBaseURL: suggestBaseURL,
		logger:         logx.NewLogger("tools"),
	}
}

func createKeywordResearchTool(ctx AgentContext) (Tool, error) {
	var serper *SerperProvider
	if key := ctx.Config.Tools.SerperAPIKey; key != "" {
		serper = NewSerperProvider(key, ctx.httpClient())
	}
	return NewKeywordResearchTool(serper, "", ctx.httpClient()), nil
}

func (t *KeywordResearchTool) Name() string { return ToolKeywordResearch }

func (t *KeywordResearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolKeywordResearch,
		Description: "Find relevant long-tail keywords for a topic using search " +
			"suggestions and related searches. Use this before writing SEO articles.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"topic": {
					Type:        "string",
					Description: "Topic to research keywords for",
				},
			},
			Required: []string{"topic"},
		},
	}
}

// Exec gathers keyword candidates from all available sources.
func (t *KeywordResearchTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	topic, ok := args["topic"].(string)
	if !ok || topic == "" {
		return nil, fmt.Errorf("topic is required and must be a string")
	}

	var keywords []string

	suggestions, err := t.autocomplete(ctx, topic)
	if err != nil {
		t.logger.Warn("autocomplete lookup failed: %v", err)
	} else {
		keywords = append(keywords, suggestions...)
	}

	if t.serper != nil {
		related, err := t.serper.Related(ctx, topic, 5)
		if err != nil {
			t.logger.Warn("serper related lookup failed: %v", err)
		} else {
			keywords = append(keywords, related...)
		}
	}

	unique := dedupe(keywords)
	if len(unique) == 0 {
		return errorResult(fmt.Sprintf("no keywords found for %q", topic))
	}

	return jsonResult(map[string]any{
		"success":  true,
		"topic":    topic,
		"count":    len(unique),
		"keywords": unique,
	})
}

// autocomplete queries the Google suggest endpoint. The response is a JSON
// array whose second element lists the suggestions.
func (t *KeywordResearchTool) autocomplete(ctx context.Context, topic string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/complete/search?client=firefox&q=%s",
		t.suggestBaseURL, url.QueryEscape(topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggest request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggest request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggest endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read suggest response: %w", err)
	}

	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse suggest response: %w", err)
	}
	if len(payload) < 2 {
		return nil, nil
	}

	var suggestions []string
	if err := json.Unmarshal(payload[1], &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	if len(suggestions) > 10 {
		suggestions = suggestions[:10]
	}
	return suggestions, nil
}

// dedupe removes empty and duplicate entries, preserving order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
