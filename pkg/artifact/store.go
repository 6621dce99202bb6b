// Package artifact provides the append-only output store for generated
// marketing artifacts. Each pipeline run writes under fixed category
// subdirectories; files are never mutated after creation.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Category names map 1:1 to output subdirectories.
const (
	CategoryPosts     = "posts"
	CategoryArticles  = "articles"
	CategoryEmails    = "emails"
	CategoryReports   = "reports"
	CategoryAnalytics = "analytics"
)

// AnalyticsReportFile is the well-known analytics snapshot read by the
// analytics crew. It is produced externally (or by earlier runs).
const AnalyticsReportFile = "latest_report.json"

// Store writes artifacts under a base directory. A per-run tag is embedded
// in every filename so concurrent runs never collide on a path.
type Store struct {
	baseDir string
	runTag  string
	mu      sync.Mutex
	now     func() time.Time
}

// NewStore creates a store rooted at baseDir. runTag may be empty for
// ad-hoc use; crews pass a short run identifier.
func NewStore(baseDir, runTag string) *Store {
	return &Store{
		baseDir: baseDir,
		runTag:  runTag,
		now:     time.Now,
	}
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// write creates the category directory if needed and writes the file.
func (s *Store) write(category, filename string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.baseDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", category, err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return path, nil
}

// stamp returns the timestamp fragment used in filenames, with the run tag
// appended when present.
func (s *Store) stamp() string {
	ts := s.now().UTC().Format("20060102-150405")
	if s.runTag == "" {
		return ts
	}
	return ts + "-" + s.runTag
}

// SavePost writes a social media post draft under posts/.
func (s *Store) SavePost(platform, postType, content string) (string, error) {
	if platform == "" {
		return "", fmt.Errorf("platform cannot be empty")
	}
	if postType == "" {
		postType = "text"
	}

	created := s.now().UTC().Format("2006-01-02 15:04")
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Post\n\n", strings.ToUpper(platform))
	fmt.Fprintf(&b, "**Type:** %s\n", postType)
	fmt.Fprintf(&b, "**Created:** %s\n", created)
	fmt.Fprintf(&b, "**Platform:** %s\n\n---\n\n", platform)
	b.WriteString(content)

	filename := fmt.Sprintf("%s-%s.md", strings.ToLower(platform), s.stamp())
	return s.write(CategoryPosts, filename, []byte(b.String()))
}

// SaveArticle writes an SEO article under articles/ with YAML front matter.
func (s *Store) SaveArticle(title, keywords, content string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("title cannot be empty")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "---\ntitle: %q\nkeywords: %q\ndate: %s\n---\n\n",
		title, keywords, s.now().UTC().Format(time.RFC3339))
	b.WriteString(content)

	filename := fmt.Sprintf("%s-%s.md", Slug(title), s.stamp())
	return s.write(CategoryArticles, filename, []byte(b.String()))
}

// SaveEmail writes a sequence email draft under emails/.
func (s *Store) SaveEmail(position int, subject, content string) (string, error) {
	if position < 1 {
		position = 1
	}

	created := s.now().UTC().Format("2006-01-02 15:04")
	var b strings.Builder
	b.WriteString("# Email Draft\n\n")
	fmt.Fprintf(&b, "**Subject:** %s\n", subject)
	fmt.Fprintf(&b, "**Sequence Position:** %d\n", position)
	fmt.Fprintf(&b, "**Created:** %s\n\n---\n\n", created)
	b.WriteString(content)

	filename := fmt.Sprintf("seq%02d-%s.md", position, s.stamp())
	return s.write(CategoryEmails, filename, []byte(b.String()))
}

// SaveReport writes the daily report under reports/. One file per day per
// run tag; repeated runs on the same day append new files, never overwrite
// across runs.
func (s *Store) SaveReport(report string) (string, error) {
	date := s.now().UTC().Format("2006-01-02")
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Marketing Report - %s\n\n", date)
	b.WriteString(report)

	filename := fmt.Sprintf("daily-%s.md", date)
	if s.runTag != "" {
		filename = fmt.Sprintf("daily-%s-%s.md", date, s.runTag)
	}
	return s.write(CategoryReports, filename, []byte(b.String()))
}

// ReadAnalytics reads the latest analytics snapshot. When source is "all"
// (or empty) the whole document is returned; otherwise only that section.
func (s *Store) ReadAnalytics(source string) (string, error) {
	path := filepath.Join(s.baseDir, CategoryAnalytics, AnalyticsReportFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("no analytics data available yet")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read analytics report: %w", err)
	}

	if source == "" || source == "all" {
		return string(raw), nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("analytics report is not valid JSON: %w", err)
	}
	section, ok := doc[source]
	if !ok {
		return "", fmt.Errorf("analytics source %q not found", source)
	}
	return string(section), nil
}

// Slug converts a title into a filesystem-safe name fragment, capped at 50
// characters as the article naming scheme expects.
func Slug(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		default:
			b.WriteRune('_')
		}
		if b.Len() >= 50 {
			break
		}
	}
	slug := strings.Trim(b.String(), "-_")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
