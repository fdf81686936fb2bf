package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/vsxsync/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStorage() *Storage {
	return NewStorageWithFS(afero.NewMemMapFs(), "downloads.json", testLogger())
}

func TestReadAllMissingFile(t *testing.T) {
	entries, err := newTestStorage().ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpsertInsert(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, entity.DownloadInfo{ID: "a.b", FileName: "a-b.vsix"}))
	require.NoError(t, s.Upsert(ctx, entity.DownloadInfo{ID: "c.d", FileName: "c-d.vsix"}))

	entries, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUpsertReplacesByID(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, entity.DownloadInfo{
		ID:                "ghost.ext",
		DirectDownloadURL: "https://one",
		Version:           "1.0.0",
		Success:           true,
	}))
	require.NoError(t, s.Upsert(ctx, entity.DownloadInfo{
		ID:                "ghost.ext",
		DirectDownloadURL: "https://two",
	}))

	entries, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Replace, not merge: nothing of the first write survives.
	assert.Equal(t, "https://two", entries[0].DirectDownloadURL)
	assert.Empty(t, entries[0].Version)
	assert.False(t, entries[0].Success)
}

func TestMarkResult(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(ctx, entity.DownloadInfo{ID: "a.b", Timestamp: old}))

	require.NoError(t, s.MarkResult(ctx, "a.b", true))

	entries, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
	assert.True(t, entries[0].Timestamp.After(old))
}

func TestMarkResultAbsentIsNoop(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()

	require.NoError(t, s.MarkResult(ctx, "ghost.ext", true))

	entries, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpsertRecoversFromCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "downloads.json", []byte("not json"), 0o644))
	s := NewStorageWithFS(fs, "downloads.json", testLogger())
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, entity.DownloadInfo{ID: "a.b"}))

	entries, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
