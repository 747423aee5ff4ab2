package writepolicy

import (
	"context"
	"log/slog"

	"github.com/insidebooks/ibpcheck/types"
)

// WriteThroughPolicy persists every write before the cache call returns.
type WriteThroughPolicy struct {
	store  types.Store
	logger *slog.Logger
}

func NewWriteThroughPolicy(store types.Store, logger *slog.Logger) *WriteThroughPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteThroughPolicy{store: store, logger: logger}
}

func (w *WriteThroughPolicy) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	if err := w.store.Save(ctx, ent); err != nil {
		w.logger.Warn("writepolicy: save failed", "inmate_id", ent.Key, "error", err)
	}
}

func (w *WriteThroughPolicy) OnDelete(ctx context.Context, key string) {
	if err := w.store.Delete(ctx, key); err != nil {
		w.logger.Warn("writepolicy: delete failed", "inmate_id", key, "error", err)
	}
}

// Close has nothing to flush.
func (w *WriteThroughPolicy) Close() {}
