package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilyProviderSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-key", body["api_key"])
		assert.Equal(t, "advanced", body["search_depth"])
		assert.Equal(t, "ai trends", body["query"])

		resp := map[string]any{
			"results": []map[string]any{
				{"title": "Trend One", "content": "Something is trending", "url": "https://a.example"},
				{"title": "Trend Two", "content": "Something else", "url": "https://b.example"},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider := NewTavilyProviderWithBaseURL("test-key", server.URL, server.Client())
	results, err := provider.Search(context.Background(), "ai trends", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Trend One", results[0].Title)
	assert.Equal(t, "https://b.example", results[1].URL)
}

func TestTavilyProviderTruncatesContent(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"results": []map[string]any{
				{"title": "Long", "content": string(long), "url": "https://a.example"},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider := NewTavilyProviderWithBaseURL("k", server.URL, server.Client())
	results, err := provider.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Content, 300)
}

func TestTruncateContent(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact limit untouched", "hello", 5, "hello"},
		{"ascii cut at limit", "hello world", 5, "hello"},
		{"multi-byte rune not split", "abécd", 3, "ab"},
		{"cut lands on rune start", "abécd", 4, "abé"},
		{"emoji not split", "go\U0001F680now", 4, "go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateContent(tt.in, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestTavilyProviderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewTavilyProviderWithBaseURL("bad", server.URL, server.Client())
	_, err := provider.Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSerperProviderSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		resp := map[string]any{
			"organic": []map[string]any{
				{"title": "Hit", "snippet": "A snippet", "link": "https://c.example"},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider := NewSerperProviderWithBaseURL("test-key", server.URL, server.Client())
	results, err := provider.Search(context.Background(), "golang forums", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hit", results[0].Title)
	assert.Equal(t, "A snippet", results[0].Content)
}

func TestSerperProviderRelated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"relatedSearches": []map[string]any{
				{"query": "best crm for startups"},
				{"query": ""},
			},
			"peopleAlsoAsk": []map[string]any{
				{"question": "what is a crm"},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider := NewSerperProviderWithBaseURL("k", server.URL, server.Client())
	related, err := provider.Related(context.Background(), "crm", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"best crm for startups", "what is a crm"}, related)
}

func TestSearchTrendsToolNotConfigured(t *testing.T) {
	tool := NewSearchTrendsTool(nil)
	result, err := tool.Exec(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content), &parsed))
	assert.Equal(t, false, parsed["success"])
	assert.Contains(t, parsed["error"], "TAVILY_API_KEY")
}

func TestSearchToolsRejectMissingQuery(t *testing.T) {
	tests := []struct {
		name string
		tool Tool
	}{
		{"search_trends", NewSearchTrendsTool(nil)},
		{"web_search", NewWebSearchTool(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tool.Exec(context.Background(), map[string]any{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "query")
		})
	}
}

func TestWebSearchToolEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"organic": []any{}}))
	}))
	defer server.Close()

	tool := NewWebSearchTool(NewSerperProviderWithBaseURL("k", server.URL, server.Client()))
	result, err := tool.Exec(context.Background(), map[string]any{"query": "nothing at all"})
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content), &parsed))
	assert.Equal(t, true, parsed["success"])
	assert.Equal(t, float64(0), parsed["result_count"])
	assert.Contains(t, parsed["note"], "No results")
}
