package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/spf13/afero"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// Storage keeps the download ledger in a single JSON document. Every
// write is a read-modify-write of the whole file, keyed by extension
// id: an upsert drops any existing entry with the same id and appends
// the new one. Safe for a single process only.
type Storage struct {
	fs   afero.Fs
	path string
	log  *slog.Logger
}

func NewStorage(path string, log *slog.Logger) *Storage {
	return NewStorageWithFS(afero.NewOsFs(), path, log)
}

func NewStorageWithFS(fs afero.Fs, path string, log *slog.Logger) *Storage {
	return &Storage{
		fs:   fs,
		path: path,
		log:  log.With(slog.String("item", "LedgerStorage")),
	}
}

// ReadAll returns every ledger entry. A missing file is an empty
// ledger, not an error.
func (s *Storage) ReadAll(_ context.Context) ([]entity.DownloadInfo, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []entity.DownloadInfo{}, nil
		}

		return nil, fmt.Errorf("cannot read ledger file %s: %w", s.path, err)
	}

	var entries []entity.DownloadInfo
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("cannot parse ledger file %s: %w", s.path, err)
	}

	return entries, nil
}

// Upsert replaces or inserts the entry with info.ID. An unreadable
// ledger file is treated as empty here so one bad write does not wedge
// every later upsert.
func (s *Storage) Upsert(ctx context.Context, info entity.DownloadInfo) error {
	entries, err := s.ReadAll(ctx)
	if err != nil {
		s.log.Warn("Ledger is unreadable, starting over", slog.Any("error", err))
		entries = nil
	}

	kept := make([]entity.DownloadInfo, 0, len(entries)+1)
	for _, e := range entries {
		if e.ID != info.ID {
			kept = append(kept, e)
		}
	}
	kept = append(kept, info)

	return s.write(kept)
}

// MarkResult updates success and timestamp of the entry with the given
// id. A missing entry is a no-op.
func (s *Storage) MarkResult(ctx context.Context, id string, success bool) error {
	entries, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}

	updated := false
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Success = success
			entries[i].Timestamp = time.Now().UTC()
			updated = true

			break
		}
	}

	if !updated {
		return nil
	}

	return s.write(entries)
}

func (s *Storage) write(entries []entity.DownloadInfo) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal ledger: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("cannot create ledger dir %s: %w", dir, err)
		}
	}

	if err := afero.WriteFile(s.fs, s.path, data, fileMode); err != nil {
		return fmt.Errorf("cannot write ledger file %s: %w", s.path, err)
	}

	return nil
}
