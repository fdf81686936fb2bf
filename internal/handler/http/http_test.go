package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/vsxsync/internal/common"
	"github.com/jgivc/vsxsync/internal/entity"
)

type fakeParser struct{}

func (fakeParser) Parse(r io.Reader) ([]entity.ExtensionRef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if strings.Contains(string(data), "broken") {
		return nil, common.ErrMalformedManifest
	}

	return []entity.ExtensionRef{{ID: "a.b"}}, nil
}

type fakeCheck struct{}

func (fakeCheck) Check(_ context.Context, refs []entity.ExtensionRef) (*entity.Results, error) {
	return &entity.Results{
		Available:   []entity.ResolvedExtension{},
		Unavailable: refs,
	}, nil
}

type fakePrepare struct {
	lastID       string
	lastVersion  string
	lastFileName string
}

func (f *fakePrepare) Prepare(_ context.Context, id entity.ExtensionID, version, fileNameOverride string) (*entity.DownloadInfo, error) {
	f.lastID, f.lastVersion, f.lastFileName = id.String(), version, fileNameOverride

	return &entity.DownloadInfo{
		ID:                id.String(),
		MarketplaceURL:    "https://marketplace.visualstudio.com/items/" + id.String(),
		DirectDownloadURL: "https://example/direct",
		FileName:          "a-b.vsix",
	}, nil
}

type fakeResolver struct {
	ids map[string]string
}

func (f *fakeResolver) ResolveID(_ context.Context, uuid string, _ []entity.ExtensionRef) (string, error) {
	id, ok := f.ids[uuid]
	if !ok {
		return "", common.ErrUUIDNotFound
	}

	return id, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckHandler(t *testing.T) {
	h := NewCheckHandler(fakeParser{}, fakeCheck{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/check/", strings.NewReader("enabled:\n  - id: a.b\n"))
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res entity.Results
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Unavailable, 1)
	assert.Equal(t, "a.b", res.Unavailable[0].ID)
}

func TestCheckHandlerMalformedManifest(t *testing.T) {
	h := NewCheckHandler(fakeParser{}, fakeCheck{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/check/", strings.NewReader("broken"))
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrepareHandler(t *testing.T) {
	srv := &fakePrepare{}
	h := NewPrepareHandler(srv, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/download/ghost.ext/?version=1.2.3", nil)
	req.SetPathValue("id", "ghost.ext")
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ghost.ext", srv.lastID)
	assert.Equal(t, "1.2.3", srv.lastVersion)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["requires_manual_download"])
	assert.Equal(t, "https://example/direct", resp["direct_download_url"])
}

func TestPrepareHandlerBadID(t *testing.T) {
	h := NewPrepareHandler(&fakePrepare{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/download/nodot/", nil)
	req.SetPathValue("id", "nodot")
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveHandler(t *testing.T) {
	alias := "b2f0f9a2-94f3-4e1f-b02f-5f0c2e8e3c11"
	resolver := &fakeResolver{ids: map[string]string{alias: "ghost.ext"}}
	srv := &fakePrepare{}
	h := NewResolveHandler(resolver, srv, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/download-by-uuid/"+alias+"/", nil)
	req.SetPathValue("uuid", alias)
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ghost.ext", srv.lastID)
	assert.Equal(t, alias+".vsix", srv.lastFileName)
}

func TestResolveHandlerInvalidUUID(t *testing.T) {
	h := NewResolveHandler(&fakeResolver{}, &fakePrepare{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/download-by-uuid/not-a-uuid/", nil)
	req.SetPathValue("uuid", "not-a-uuid")
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveHandlerUnknownUUID(t *testing.T) {
	alias := "b2f0f9a2-94f3-4e1f-b02f-5f0c2e8e3c11"
	h := NewResolveHandler(&fakeResolver{}, &fakePrepare{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/download-by-uuid/"+alias+"/", nil)
	req.SetPathValue("uuid", alias)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
