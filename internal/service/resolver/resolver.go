package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/vsxsync/internal/common"
	"github.com/jgivc/vsxsync/internal/entity"
)

const serviceName = "resolver"

type ResultsStore interface {
	Load(ctx context.Context) (*entity.Results, error)
}

// ResolverService maps an opaque uuid alias back to an extension id by
// scanning the current Results snapshot, then an optional manifest
// fallback. Duplicate uuids are not rejected; the first match in scan
// order (available, unavailable, manifest) wins.
type ResolverService struct {
	store ResultsStore
	log   *slog.Logger
}

func NewResolverService(store ResultsStore, log *slog.Logger) *ResolverService {
	return &ResolverService{
		store: store,
		log:   log.With(slog.String("service", serviceName)),
	}
}

func (r *ResolverService) ResolveID(ctx context.Context, uuid string, manifest []entity.ExtensionRef) (string, error) {
	if uuid == "" {
		return "", fmt.Errorf("%w: empty uuid", common.ErrUUIDNotFound)
	}

	res, err := r.store.Load(ctx)
	if err != nil {
		r.log.Error("Cannot load results", slog.Any("error", err))

		return "", fmt.Errorf("cannot load results: %w", err)
	}

	if res != nil {
		for _, ext := range res.Available {
			if ext.UUID == uuid {
				return ext.ID, nil
			}
		}

		for _, ext := range res.Unavailable {
			if ext.UUID == uuid {
				return ext.ID, nil
			}
		}
	}

	for _, ref := range manifest {
		if ref.UUID == uuid {
			return ref.ID, nil
		}
	}

	return "", fmt.Errorf("%w: %s", common.ErrUUIDNotFound, uuid)
}
