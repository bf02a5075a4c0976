package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/c2h-ai/internal/metrics"
	"github.com/ashureev/c2h-ai/internal/store"
)

// loadTimeout bounds the first read of an owner's collection.
const loadTimeout = 10 * time.Second

// ErrRegistryClosed is returned by Store after Close.
var ErrRegistryClosed = errors.New("session registry closed")

// loadEntry is an owner's store, or the load producing it. done is closed
// once store or err is set.
type loadEntry struct {
	done  chan struct{}
	store *Store
	err   error
}

// Registry hands out one Store per owner, loading it on first use.
type Registry struct {
	blobs   store.BlobStore
	ai      Assistant
	logger  *slog.Logger
	metrics *metrics.Metrics

	titleCtx    context.Context
	cancelTitle context.CancelFunc
	titles      sync.WaitGroup

	mu     sync.Mutex
	stores map[string]*loadEntry
	closed bool
}

// NewRegistry creates a registry over blobs.
func NewRegistry(blobs store.BlobStore, ai Assistant, logger *slog.Logger, m *metrics.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		blobs:       blobs,
		ai:          ai,
		logger:      logger,
		metrics:     m,
		titleCtx:    ctx,
		cancelTitle: cancel,
		stores:      make(map[string]*loadEntry),
	}
}

// Store returns the owner's store, loading it from the blob store once.
// The load outlives a cancelled ctx so one dropped request cannot fail it
// for the others waiting on the same owner. A failed load is not kept;
// the next call retries it.
func (r *Registry) Store(ctx context.Context, owner string) (*Store, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	e, ok := r.stores[owner]
	if !ok {
		e = &loadEntry{done: make(chan struct{})}
		r.stores[owner] = e
	}
	r.mu.Unlock()

	if !ok {
		r.load(ctx, owner, e)
		return e.store, e.err
	}

	select {
	case <-e.done:
		return e.store, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) load(ctx context.Context, owner string, e *loadEntry) {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	s, err := Open(loadCtx, owner, r.blobs, r.ai, Options{
		Logger:       r.logger,
		Metrics:      r.metrics,
		TitleContext: r.titleCtx,
		Titles:       &r.titles,
	})

	var orphan *Store
	r.mu.Lock()
	switch {
	case err != nil:
		r.logger.Error("failed to open chat history", "owner", owner, "error", err)
		delete(r.stores, owner)
	case r.closed:
		orphan = s
		s, err = nil, ErrRegistryClosed
		delete(r.stores, owner)
	}
	e.store, e.err = s, err
	r.mu.Unlock()
	close(e.done)

	if orphan != nil {
		orphan.Close()
	}
}

// Owners lists owners that have a persisted collection.
func (r *Registry) Owners(ctx context.Context) ([]string, error) {
	keys, err := r.blobs.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}
	owners := make([]string, 0, len(keys))
	for _, k := range keys {
		owners = append(owners, strings.TrimPrefix(k, KeyPrefix))
	}
	return owners, nil
}

// Close waits for in-flight title requests until ctx is done, then
// flushes every store.
func (r *Registry) Close(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		r.titles.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("abandoning in-flight title requests", "error", ctx.Err())
		r.cancelTitle()
		<-done
	}
	r.cancelTitle()

	r.mu.Lock()
	r.closed = true
	stores := make([]*Store, 0, len(r.stores))
	for _, e := range r.stores {
		// Loads still running close their own store once they see closed.
		select {
		case <-e.done:
			if e.store != nil {
				stores = append(stores, e.store)
			}
		default:
		}
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Close()
	}
}
