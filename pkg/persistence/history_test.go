package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestRecordAndGetRun(t *testing.T) {
	h := openTestHistory(t)

	started := time.Now().UTC().Truncate(time.Second)
	err := h.RecordStart(&Run{
		ID:        "run-1",
		Pipeline:  "content",
		Params:    `{"niche":"fitness"}`,
		StartedAt: started,
	})
	require.NoError(t, err)

	run, err := h.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "content", run.Pipeline)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)
	assert.True(t, run.StartedAt.Equal(started))
}

func TestRecordFinish(t *testing.T) {
	h := openTestHistory(t)

	require.NoError(t, h.RecordStart(&Run{
		ID: "run-1", Pipeline: "email", StartedAt: time.Now(),
	}))
	require.NoError(t, h.RecordFinish("run-1", StatusSuccess, "7 emails drafted"))

	run, err := h.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, run.Status)
	assert.Equal(t, "7 emails drafted", run.Result)
	require.NotNil(t, run.FinishedAt)
}

func TestRecordFinishUnknownRun(t *testing.T) {
	h := openTestHistory(t)
	err := h.RecordFinish("nope", StatusFailed, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestRecordFinishTruncatesResult(t *testing.T) {
	h := openTestHistory(t)

	require.NoError(t, h.RecordStart(&Run{
		ID: "run-1", Pipeline: "seo", StartedAt: time.Now(),
	}))

	long := make([]byte, resultSnippetLimit*2)
	for i := range long {
		long[i] = 'a'
	}
	require.NoError(t, h.RecordFinish("run-1", StatusSuccess, string(long)))

	run, err := h.GetRun("run-1")
	require.NoError(t, err)
	assert.Len(t, run.Result, resultSnippetLimit)
}

func TestRecentRunsOrder(t *testing.T) {
	h := openTestHistory(t)

	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.RecordStart(&Run{
			ID:        id,
			Pipeline:  "analytics",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := h.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestInvalidPipelineRejected(t *testing.T) {
	h := openTestHistory(t)
	err := h.RecordStart(&Run{ID: "x", Pipeline: "bogus", StartedAt: time.Now()})
	require.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	h, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, h.RecordStart(&Run{ID: "r", Pipeline: "full", StartedAt: time.Now()}))
	require.NoError(t, h.Close())

	h2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = h2.Close() }()

	run, err := h2.GetRun("r")
	require.NoError(t, err)
	assert.Equal(t, "full", run.Pipeline)
}
