package results

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/vsxsync/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissing(t *testing.T) {
	s := NewStorageWithFS(afero.NewMemMapFs(), "results.json", testLogger())

	res, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := NewStorageWithFS(afero.NewMemMapFs(), "results.json", testLogger())
	ctx := context.Background()

	in := &entity.Results{
		Available:   []entity.ResolvedExtension{{ID: "a.b", UUID: "u1", URL: "https://example/dl"}},
		Unavailable: []entity.ExtensionRef{{ID: "c.d", UUID: "u2"}},
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveReplacesSnapshot(t *testing.T) {
	s := NewStorageWithFS(afero.NewMemMapFs(), "results.json", testLogger())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &entity.Results{
		Available:   []entity.ResolvedExtension{{ID: "a.b", URL: "https://example/1"}},
		Unavailable: []entity.ExtensionRef{},
	}))
	require.NoError(t, s.Save(ctx, &entity.Results{
		Available:   []entity.ResolvedExtension{},
		Unavailable: []entity.ExtensionRef{{ID: "x.y"}},
	}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out.Available)
	require.Len(t, out.Unavailable, 1)
	assert.Equal(t, "x.y", out.Unavailable[0].ID)
}

func TestLoadCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "results.json", []byte("{"), 0o644))

	_, err := NewStorageWithFS(fs, "results.json", testLogger()).Load(context.Background())
	assert.Error(t, err)
}
