package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/vsxsync/internal/entity"
)

const serviceName = "sync"

type RegistryClient interface {
	Lookup(ctx context.Context, id entity.ExtensionID) (string, error)
}

type ResultsStore interface {
	Save(ctx context.Context, res *entity.Results) error
}

// SyncService partitions a declared extension list into available and
// unavailable by asking the registry about every entry, one at a time,
// in manifest order.
type SyncService struct {
	registry RegistryClient
	store    ResultsStore
	log      *slog.Logger
}

func NewSyncService(registry RegistryClient, store ResultsStore, log *slog.Logger) *SyncService {
	return &SyncService{
		registry: registry,
		store:    store,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// Check runs one full reconciliation pass and saves the snapshot,
// replacing any previous one. A registry miss is a normal outcome, not
// an error. When saving fails the in-memory Results is still returned
// alongside the error, so a completed reconciliation is not lost.
func (s *SyncService) Check(ctx context.Context, refs []entity.ExtensionRef) (*entity.Results, error) {
	res := &entity.Results{
		Available:   []entity.ResolvedExtension{},
		Unavailable: []entity.ExtensionRef{},
	}

	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}

		id, err := entity.ParseExtensionID(ref.ID)
		if err != nil {
			// A malformed id cannot be on the registry; it still
			// belongs to the declared set, so it stays in the
			// partition.
			s.log.Warn("Invalid extension id", slog.String("id", ref.ID))
			res.Unavailable = append(res.Unavailable, ref)

			continue
		}

		url, err := s.registry.Lookup(ctx, id)
		if err != nil {
			s.log.Info("Not on the registry", slog.String("id", ref.ID))
			res.Unavailable = append(res.Unavailable, ref)

			continue
		}

		s.log.Info("Available on the registry", slog.String("id", ref.ID))
		res.Available = append(res.Available, entity.ResolvedExtension{
			ID:   ref.ID,
			UUID: ref.UUID,
			URL:  url,
		})
	}

	s.log.Info("Check complete",
		slog.Int("available", len(res.Available)),
		slog.Int("unavailable", len(res.Unavailable)))

	if err := s.store.Save(ctx, res); err != nil {
		s.log.Error("Cannot save results", slog.Any("error", err))

		return res, fmt.Errorf("cannot save results: %w", err)
	}

	return res, nil
}
