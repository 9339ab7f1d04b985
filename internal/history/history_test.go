package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	at := time.UnixMilli(1_780_000_000_000)

	require.NoError(t, s.Record(ctx, Entry{JobID: "job-1", TemplateID: "ct-head", Status: "queued", Submitted: true, UpdatedAt: at}))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, Entry{JobID: "job-1", TemplateID: "ct-head", Status: "queued", Submitted: true, UpdatedAt: at}, got)
}

func TestRecordMergesWithoutBlankingFields(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{JobID: "job-1", TemplateID: "ct-head", Status: "queued", Submitted: true}))
	require.NoError(t, s.Record(ctx, Entry{JobID: "job-1", Status: "completed", Outcome: "completed", ReportID: "rep-9"}))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "ct-head", got.TemplateID)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, "rep-9", got.ReportID)
	assert.True(t, got.Submitted, "submitted flag should be sticky")
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.UnixMilli(1_780_000_000_000)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, Entry{JobID: id, UpdatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].JobID)
	assert.Equal(t, "b", entries[1].JobID)
}

func TestGetUnknown(t *testing.T) {
	s := openTemp(t)
	_, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordRequiresJobID(t *testing.T) {
	s := openTemp(t)
	assert.Error(t, s.Record(context.Background(), Entry{}))
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Entry{JobID: "job-1", Outcome: "timed out"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "timed out", got.Outcome)
}
