package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePost(t *testing.T) {
	store := NewStore(t.TempDir(), "run1")

	path, err := store.SavePost("Twitter", "text", "Ship early, ship often.")
	require.NoError(t, err)

	assert.Contains(t, path, filepath.Join(CategoryPosts, "twitter-"))
	assert.Contains(t, path, "-run1.md")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# TWITTER Post")
	assert.Contains(t, string(data), "Ship early, ship often.")
}

func TestSavePostEmptyPlatform(t *testing.T) {
	store := NewStore(t.TempDir(), "")
	_, err := store.SavePost("", "text", "content")
	assert.Error(t, err)
}

func TestSaveArticleFrontMatter(t *testing.T) {
	store := NewStore(t.TempDir(), "")

	path, err := store.SaveArticle("Best AI Tools 2026!", "ai tools, marketing", "Body text.")
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "best-ai-tools-2026"), base)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `title: "Best AI Tools 2026!"`)
	assert.Contains(t, content, `keywords: "ai tools, marketing"`)
	assert.Contains(t, content, "Body text.")
}

func TestSaveEmailSequencePrefix(t *testing.T) {
	store := NewStore(t.TempDir(), "")

	path, err := store.SaveEmail(3, "Welcome aboard", "Hello!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "seq03-"))

	// Position below 1 clamps to 1.
	path, err = store.SaveEmail(0, "s", "c")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "seq01-"))
}

func TestSaveReport(t *testing.T) {
	store := NewStore(t.TempDir(), "abc123")

	path, err := store.SaveReport("All channels up.")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "abc123")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Daily Marketing Report")
	assert.Contains(t, string(data), "All channels up.")
}

func TestReadAnalytics(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "")

	_, err := store.ReadAnalytics("all")
	assert.ErrorContains(t, err, "no analytics data")

	analyticsDir := filepath.Join(dir, CategoryAnalytics)
	require.NoError(t, os.MkdirAll(analyticsDir, 0o755))
	snapshot := `{"posts": {"count": 12}, "emails": {"open_rate": 0.31}}`
	require.NoError(t, os.WriteFile(filepath.Join(analyticsDir, AnalyticsReportFile), []byte(snapshot), 0o644))

	all, err := store.ReadAnalytics("all")
	require.NoError(t, err)
	assert.Contains(t, all, "open_rate")

	posts, err := store.ReadAnalytics("posts")
	require.NoError(t, err)
	assert.Contains(t, posts, "12")

	_, err = store.ReadAnalytics("seo")
	assert.ErrorContains(t, err, "not found")
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"C++ vs Go?", "c__-vs-go"},
		{"", "untitled"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}
