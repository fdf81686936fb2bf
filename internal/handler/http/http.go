package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jgivc/vsxsync/internal/adapter/page"
	"github.com/jgivc/vsxsync/internal/common"
	"github.com/jgivc/vsxsync/internal/entity"
)

const (
	headerContentType = "Content-Type"
	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
	contentTypeJSON   = "application/json"
	contentTypeHTML   = "text/html; charset=utf-8"

	manifestFormField = "manifest"
	maxManifestSize   = 1 << 20
)

type CheckService interface {
	Check(ctx context.Context, refs []entity.ExtensionRef) (*entity.Results, error)
}

type ManifestParser interface {
	Parse(r io.Reader) ([]entity.ExtensionRef, error)
}

type ResultsStore interface {
	Load(ctx context.Context) (*entity.Results, error)
}

type LedgerStore interface {
	ReadAll(ctx context.Context) ([]entity.DownloadInfo, error)
}

type PrepareService interface {
	Prepare(ctx context.Context, id entity.ExtensionID, version, fileNameOverride string) (*entity.DownloadInfo, error)
}

type ResolverService interface {
	ResolveID(ctx context.Context, uuid string, manifest []entity.ExtensionRef) (string, error)
}

type PageRenderer interface {
	Render() (*page.Content, error)
}

// downloadResponse is the payload for a marketplace-derived download.
// RequiresManualDownload is always true: the direct URL is constructed,
// never verified.
type downloadResponse struct {
	ID                     string `json:"id"`
	MarketplaceURL         string `json:"marketplace_url"`
	DirectDownloadURL      string `json:"direct_download_url"`
	FileName               string `json:"file_name"`
	RequiresManualDownload bool   `json:"requires_manual_download"`
}

func NewPageHandler(p PageRenderer, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "PageHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		content, err := p.Render()
		if err != nil {
			switch {
			case errors.Is(err, common.ErrPageNotFoundError):
				http.Error(w, "Not found", http.StatusNotFound)
			default:
				log.Error("Cannot render page", slog.Any("error", err))
				http.Error(w, "Cannot render page", http.StatusInternalServerError)
			}

			return
		}

		if r.Header.Get(headerIfNoneMatch) == content.Hash {
			w.WriteHeader(http.StatusNotModified)

			return
		}

		w.Header().Set(headerContentType, contentTypeHTML)
		w.Header().Set(headerETag, content.Hash)
		w.Write([]byte(content.HTML))
	}
}

func NewCheckHandler(p ManifestParser, srv CheckService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "CheckHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := manifestBody(r)
		if err != nil {
			http.Error(w, "Cannot read manifest", http.StatusBadRequest)

			return
		}
		defer body.Close()

		refs, err := p.Parse(body)
		if err != nil {
			log.Error("Cannot parse manifest", slog.Any("error", err))
			http.Error(w, "Malformed manifest", http.StatusBadRequest)

			return
		}

		res, err := srv.Check(r.Context(), refs)
		if err != nil {
			// The partition is complete even when saving failed; report
			// it anyway.
			log.Error("Cannot save results", slog.Any("error", err))
		}

		writeJSON(w, res, log)
	}
}

func NewResultsHandler(store ResultsStore, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ResultsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.Load(r.Context())
		if err != nil {
			log.Error("Cannot load results", slog.Any("error", err))
			http.Error(w, "Cannot load results", http.StatusInternalServerError)

			return
		}

		if res == nil {
			http.Error(w, "No results yet", http.StatusNotFound)

			return
		}

		writeJSON(w, res, log)
	}
}

func NewLedgerHandler(store LedgerStore, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "LedgerHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.ReadAll(r.Context())
		if err != nil {
			log.Error("Cannot read ledger", slog.Any("error", err))
			http.Error(w, "Cannot read ledger", http.StatusInternalServerError)

			return
		}

		writeJSON(w, entries, log)
	}
}

func NewPrepareHandler(srv PrepareService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "PrepareHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entity.ParseExtensionID(r.PathValue("id"))
		if err != nil {
			http.Error(w, "Invalid extension id", http.StatusBadRequest)

			return
		}

		info, err := srv.Prepare(r.Context(), id, r.URL.Query().Get("version"), "")
		if err != nil {
			log.Error("Cannot prepare download", slog.String("id", id.String()), slog.Any("error", err))
			http.Error(w, "Cannot prepare download", http.StatusInternalServerError)

			return
		}

		writeJSON(w, toDownloadResponse(info), log)
	}
}

func NewResolveHandler(resolver ResolverService, srv PrepareService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ResolveHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		alias := r.PathValue("uuid")
		if _, err := uuid.Parse(alias); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		id, err := resolver.ResolveID(r.Context(), alias, nil)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrUUIDNotFound):
				http.Error(w, "Unknown uuid", http.StatusNotFound)
			default:
				log.Error("Cannot resolve uuid", slog.String("uuid", alias), slog.Any("error", err))
				http.Error(w, "Cannot resolve uuid", http.StatusInternalServerError)
			}

			return
		}

		eid, err := entity.ParseExtensionID(id)
		if err != nil {
			log.Error("Resolved an invalid extension id", slog.String("id", id), slog.Any("error", err))
			http.Error(w, "Cannot prepare download", http.StatusInternalServerError)

			return
		}

		info, err := srv.Prepare(r.Context(), eid, "", alias+".vsix")
		if err != nil {
			log.Error("Cannot prepare download", slog.String("id", id), slog.Any("error", err))
			http.Error(w, "Cannot prepare download", http.StatusInternalServerError)

			return
		}

		writeJSON(w, toDownloadResponse(info), log)
	}
}

func toDownloadResponse(info *entity.DownloadInfo) *downloadResponse {
	return &downloadResponse{
		ID:                     info.ID,
		MarketplaceURL:         info.MarketplaceURL,
		DirectDownloadURL:      info.DirectDownloadURL,
		FileName:               info.FileName,
		RequiresManualDownload: true,
	}
}

// manifestBody accepts both a multipart upload (field "manifest") and a
// raw request body.
func manifestBody(r *http.Request) (io.ReadCloser, error) {
	if err := r.ParseMultipartForm(maxManifestSize); err == nil {
		if f, _, err := r.FormFile(manifestFormField); err == nil {
			return f, nil
		}
	}

	return http.MaxBytesReader(nil, r.Body, maxManifestSize), nil
}

func writeJSON(w http.ResponseWriter, v any, log *slog.Logger) {
	w.Header().Set(headerContentType, contentTypeJSON)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Cannot encode response", slog.Any("error", err))
	}
}
