package resolver

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/vsxsync/internal/common"
	"github.com/jgivc/vsxsync/internal/entity"
)

type fakeResultsStore struct {
	res *entity.Results
	err error
}

func (f *fakeResultsStore) Load(_ context.Context) (*entity.Results, error) {
	return f.res, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResults() *entity.Results {
	return &entity.Results{
		Available: []entity.ResolvedExtension{
			{ID: "ms-python.python", UUID: "u1", URL: "https://example/dl"},
		},
		Unavailable: []entity.ExtensionRef{
			{ID: "ghost.ext", UUID: "u2"},
		},
	}
}

func TestResolveIDFromAvailable(t *testing.T) {
	srv := NewResolverService(&fakeResultsStore{res: testResults()}, testLogger())

	id, err := srv.ResolveID(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, "ms-python.python", id)
}

func TestResolveIDFromUnavailable(t *testing.T) {
	srv := NewResolverService(&fakeResultsStore{res: testResults()}, testLogger())

	id, err := srv.ResolveID(context.Background(), "u2", nil)
	require.NoError(t, err)
	assert.Equal(t, "ghost.ext", id)
}

func TestResolveIDFirstMatchWins(t *testing.T) {
	res := &entity.Results{
		Available: []entity.ResolvedExtension{
			{ID: "first.ext", UUID: "dup"},
			{ID: "second.ext", UUID: "dup"},
		},
		Unavailable: []entity.ExtensionRef{
			{ID: "third.ext", UUID: "dup"},
		},
	}
	srv := NewResolverService(&fakeResultsStore{res: res}, testLogger())

	id, err := srv.ResolveID(context.Background(), "dup", nil)
	require.NoError(t, err)
	assert.Equal(t, "first.ext", id)
}

func TestResolveIDManifestFallback(t *testing.T) {
	srv := NewResolverService(&fakeResultsStore{res: testResults()}, testLogger())

	manifest := []entity.ExtensionRef{{ID: "manifest.only", UUID: "u3"}}

	id, err := srv.ResolveID(context.Background(), "u3", manifest)
	require.NoError(t, err)
	assert.Equal(t, "manifest.only", id)
}

func TestResolveIDNoResultsDocument(t *testing.T) {
	srv := NewResolverService(&fakeResultsStore{}, testLogger())

	manifest := []entity.ExtensionRef{{ID: "a.b", UUID: "u9"}}

	id, err := srv.ResolveID(context.Background(), "u9", manifest)
	require.NoError(t, err)
	assert.Equal(t, "a.b", id)
}

func TestResolveIDNotFound(t *testing.T) {
	srv := NewResolverService(&fakeResultsStore{res: testResults()}, testLogger())

	_, err := srv.ResolveID(context.Background(), "unknown", nil)
	assert.ErrorIs(t, err, common.ErrUUIDNotFound)
}

func TestResolveIDEmptyUUID(t *testing.T) {
	res := &entity.Results{
		Unavailable: []entity.ExtensionRef{{ID: "no-alias.ext"}},
	}
	srv := NewResolverService(&fakeResultsStore{res: res}, testLogger())

	_, err := srv.ResolveID(context.Background(), "", nil)
	assert.ErrorIs(t, err, common.ErrUUIDNotFound)
}
