package writepolicy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/insidebooks/ibpcheck/types"
)

// writeReq is one pending store operation. A nil entry means delete.
type writeReq struct {
	ctx context.Context
	key string
	ent *types.CacheEntry
}

/*
WriteBackPolicy persists writes from one background worker.

The queue is bounded. When it is full the write is dropped and logged rather than
blocking a refresh: the entry is still in memory and the next refresh writes it again.
*/
type WriteBackPolicy struct {
	store  types.Store
	logger *slog.Logger
	ch     chan writeReq
	wg     sync.WaitGroup

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewWriteBackPolicy(store types.Store, buffer int, logger *slog.Logger) *WriteBackPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 1
	}
	w := &WriteBackPolicy{
		store:  store,
		logger: logger,
		ch:     make(chan writeReq, buffer),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

func (w *WriteBackPolicy) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	w.enqueue(writeReq{ctx: context.WithoutCancel(ctx), key: ent.Key, ent: ent})
}

func (w *WriteBackPolicy) OnDelete(ctx context.Context, key string) {
	w.enqueue(writeReq{ctx: context.WithoutCancel(ctx), key: key})
}

func (w *WriteBackPolicy) enqueue(req writeReq) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.ch <- req:
	default:
		w.logger.Warn("writepolicy: queue full, dropping write", "inmate_id", req.key)
	}
}

func (w *WriteBackPolicy) worker() {
	defer w.wg.Done()

	for req := range w.ch {
		var err error
		if req.ent == nil {
			err = w.store.Delete(req.ctx, req.key)
		} else {
			err = w.store.Save(req.ctx, req.ent)
		}
		if err != nil {
			w.logger.Warn("writepolicy: write-back failed", "inmate_id", req.key, "error", err)
		}
	}
}

// Close stops accepting writes, drains the queue and waits for the worker.
func (w *WriteBackPolicy) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.ch)
		w.mu.Unlock()
		w.wg.Wait()
	})
}
