package results

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/spf13/afero"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// Storage persists the Results snapshot as a single JSON document.
// Save replaces the whole file; there is no merge with a previous run.
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
		log:  log.With(slog.String("item", "ResultsStorage")),
	}
}

// Load returns the persisted snapshot, or (nil, nil) when no snapshot
// has been written yet.
func (s *Storage) Load(_ context.Context) (*entity.Results, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("cannot read results file %s: %w", s.path, err)
	}

	var res entity.Results
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("cannot parse results file %s: %w", s.path, err)
	}

	return &res, nil
}

func (s *Storage) Save(_ context.Context, res *entity.Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal results: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("cannot create results dir %s: %w", dir, err)
		}
	}

	if err := afero.WriteFile(s.fs, s.path, data, fileMode); err != nil {
		return fmt.Errorf("cannot write results file %s: %w", s.path, err)
	}

	s.log.Debug("Results saved", slog.String("path", s.path))

	return nil
}
