package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jgivc/vsxsync/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	// KeyLedger is a HASH: extension id -> DownloadInfo JSON. HSET makes
	// the per-entry upsert atomic, so concurrent writers (several serve
	// processes, or a CLI run racing the server) cannot lose each
	// other's entries the way the file-backed ledger can.
	KeyLedger = "vsxsync:ledger"
)

type ledgerRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewLedgerRepository(cl *redis.Client, log *slog.Logger) *ledgerRepository {
	return &ledgerRepository{
		cl:  cl,
		log: log.With(slog.String("item", "LedgerRepository")),
	}
}

func (r *ledgerRepository) ReadAll(ctx context.Context) ([]entity.DownloadInfo, error) {
	values, err := r.cl.HGetAll(ctx, KeyLedger).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot read ledger: %w", err)
	}

	entries := make([]entity.DownloadInfo, 0, len(values))
	for id, raw := range values {
		var info entity.DownloadInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			r.log.Error("Cannot parse ledger entry", slog.String("id", id), slog.Any("error", err))

			continue
		}

		entries = append(entries, info)
	}

	return entries, nil
}

func (r *ledgerRepository) Upsert(ctx context.Context, info entity.DownloadInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("cannot marshal ledger entry: %w", err)
	}

	if _, err := r.cl.HSet(ctx, KeyLedger, info.ID, data).Result(); err != nil {
		return fmt.Errorf("cannot upsert ledger entry %s: %w", info.ID, err)
	}

	return nil
}

func (r *ledgerRepository) MarkResult(ctx context.Context, id string, success bool) error {
	raw, err := r.cl.HGet(ctx, KeyLedger, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("cannot get ledger entry %s: %w", id, err)
	}

	var info entity.DownloadInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return fmt.Errorf("cannot parse ledger entry %s: %w", id, err)
	}

	info.Success = success
	info.Timestamp = time.Now().UTC()

	return r.Upsert(ctx, info)
}
