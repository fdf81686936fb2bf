package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jgivc/vsxsync/internal/adapter/marketplace"
	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/spf13/afero"
)

const (
	serviceName = "download"

	defaultTimeout = 5 * time.Minute
	dirMode        = 0o755
)

type RegistryClient interface {
	Lookup(ctx context.Context, id entity.ExtensionID) (string, error)
}

// LedgerStore is the persisted, upsert-keyed-by-id record of download
// attempts. MarkResult is a no-op when the id is absent.
type LedgerStore interface {
	ReadAll(ctx context.Context) ([]entity.DownloadInfo, error)
	Upsert(ctx context.Context, info entity.DownloadInfo) error
	MarkResult(ctx context.Context, id string, success bool) error
}

// DownloadService derives marketplace download targets, transfers
// packages to disk and keeps the ledger current.
type DownloadService struct {
	registry RegistryClient
	ledger   LedgerStore
	fs       afero.Fs
	cl       *http.Client
	dir      string
	log      *slog.Logger
}

func NewDownloadService(registry RegistryClient, ledger LedgerStore, dir string, log *slog.Logger) *DownloadService {
	return NewDownloadServiceWithFS(afero.NewOsFs(), &http.Client{Timeout: defaultTimeout}, registry, ledger, dir, log)
}

func NewDownloadServiceWithFS(fs afero.Fs, cl *http.Client, registry RegistryClient,
	ledger LedgerStore, dir string, log *slog.Logger) *DownloadService {
	return &DownloadService{
		registry: registry,
		ledger:   ledger,
		fs:       fs,
		cl:       cl,
		dir:      dir,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// Prepare derives the marketplace URLs for id and records the attempt
// in the ledger with success=false, whether or not a transfer follows.
// The derived direct URL is a guess; the caller must treat the result
// as requiring a manual download until Fetch confirms it. On a ledger
// write failure the derived info is still returned with the error.
func (s *DownloadService) Prepare(ctx context.Context, id entity.ExtensionID, version, fileNameOverride string) (*entity.DownloadInfo, error) {
	asset := marketplace.Derive(id, version, fileNameOverride)

	info := &entity.DownloadInfo{
		ID:                id.String(),
		MarketplaceURL:    asset.MarketplaceURL,
		DirectDownloadURL: asset.DirectDownloadURL,
		DownloadPath:      filepath.Join(s.dir, asset.FileName),
		FileName:          asset.FileName,
		Version:           asset.Version,
		Timestamp:         time.Now().UTC(),
		Success:           false,
	}

	if err := s.ledger.Upsert(ctx, *info); err != nil {
		s.log.Error("Cannot record download", slog.String("id", info.ID), slog.Any("error", err))

		return info, fmt.Errorf("cannot record download %s: %w", info.ID, err)
	}

	s.log.Debug("Download prepared", slog.String("id", info.ID), slog.String("url", info.DirectDownloadURL))

	return info, nil
}

// Fetch streams url into targetPath, creating the containing directory
// if needed, and marks the ledger entry for id accordingly. No retries;
// a failed transfer is reported once and left for the user to re-run.
func (s *DownloadService) Fetch(ctx context.Context, id, url, targetPath string) error {
	if err := s.fetch(ctx, url, targetPath); err != nil {
		s.log.Error("Download failed", slog.String("id", id), slog.String("url", url), slog.Any("error", err))

		if merr := s.ledger.MarkResult(ctx, id, false); merr != nil {
			s.log.Error("Cannot mark download failed", slog.String("id", id), slog.Any("error", merr))
		}

		return err
	}

	s.log.Info("Download complete", slog.String("id", id), slog.String("path", targetPath))

	if err := s.ledger.MarkResult(ctx, id, true); err != nil {
		s.log.Error("Cannot mark download complete", slog.String("id", id), slog.Any("error", err))

		return fmt.Errorf("cannot mark download %s complete: %w", id, err)
	}

	return nil
}

func (s *DownloadService) fetch(ctx context.Context, url, targetPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("cannot build request: %w", err)
	}

	resp, err := s.cl.Do(req)
	if err != nil {
		return fmt.Errorf("cannot request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("server returned %s for %s", resp.Status, url)
	}

	if dir := filepath.Dir(targetPath); dir != "." {
		if err := s.fs.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}

	f, err := s.fs.Create(targetPath)
	if err != nil {
		return fmt.Errorf("cannot create file %s: %w", targetPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("cannot write %s: %w", targetPath, err)
	}

	return nil
}

// DownloadByID fetches one extension: the registry first, then the
// marketplace guess as a fallback. Registry downloads are not ledgered;
// the ledger records marketplace attempts only.
func (s *DownloadService) DownloadByID(ctx context.Context, rawID, version, fileNameOverride string) (*entity.DownloadInfo, error) {
	id, err := entity.ParseExtensionID(rawID)
	if err != nil {
		return nil, err
	}

	if url, err := s.registry.Lookup(ctx, id); err == nil {
		fileName := fileNameOverride
		if fileName == "" {
			fileName = marketplace.VSIXFileName(id)
		}

		info := &entity.DownloadInfo{
			ID:                id.String(),
			DirectDownloadURL: url,
			DownloadPath:      filepath.Join(s.dir, fileName),
			FileName:          fileName,
			Timestamp:         time.Now().UTC(),
		}

		if err := s.Fetch(ctx, info.ID, url, info.DownloadPath); err != nil {
			return info, err
		}

		info.Success = true

		return info, nil
	}

	s.log.Info("Falling back to the marketplace", slog.String("id", id.String()))

	info, err := s.Prepare(ctx, id, version, fileNameOverride)
	if err != nil {
		return info, err
	}

	if err := s.Fetch(ctx, info.ID, info.DirectDownloadURL, info.DownloadPath); err != nil {
		return info, err
	}

	info.Success = true

	return info, nil
}

// DownloadAll runs marketplace downloads for every ref. Per-item
// failures are counted and logged; the batch always completes.
func (s *DownloadService) DownloadAll(ctx context.Context, refs []entity.ExtensionRef) *entity.DownloadSummary {
	summary := &entity.DownloadSummary{}

	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}

		id, err := entity.ParseExtensionID(ref.ID)
		if err != nil {
			s.log.Error("Cannot prepare download", slog.String("id", ref.ID), slog.Any("error", err))
			summary.Failed++

			continue
		}

		info, err := s.Prepare(ctx, id, "", "")
		if err != nil {
			s.log.Error("Cannot prepare download", slog.String("id", ref.ID), slog.Any("error", err))
			summary.Failed++

			continue
		}

		if err := s.Fetch(ctx, ref.ID, info.DirectDownloadURL, info.DownloadPath); err != nil {
			summary.Failed++

			continue
		}

		summary.Succeeded++
	}

	s.log.Info("Batch download complete",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed))

	return summary
}
