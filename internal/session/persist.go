package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/c2h-ai/internal/metrics"
	"github.com/ashureev/c2h-ai/internal/store"
)

const writeTimeout = 5 * time.Second

// persister writes collection snapshots for one key on a single goroutine.
// Only the newest pending snapshot is written; older ones are dropped.
type persister struct {
	blobs   store.BlobStore
	key     string
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	pending    []byte
	hasPending bool
	closed     bool

	wake chan struct{}
	done chan struct{}
}

func newPersister(blobs store.BlobStore, key string, logger *slog.Logger, m *metrics.Metrics) *persister {
	p := &persister{
		blobs:   blobs,
		key:     key,
		logger:  logger,
		metrics: m,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// enqueue schedules a write of data. A nil snapshot removes the key.
func (p *persister) enqueue(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = data
	p.hasPending = true
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for range p.wake {
		p.mu.Lock()
		data, ok := p.pending, p.hasPending
		p.pending, p.hasPending = nil, false
		p.mu.Unlock()
		if ok {
			p.write(data)
		}
	}
}

func (p *persister) write(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	if data == nil {
		err = p.blobs.Delete(ctx, p.key)
	} else {
		err = p.blobs.Set(ctx, p.key, string(data))
	}
	if err != nil {
		p.metrics.ObservePersist(metrics.OutcomeError)
		p.logger.Error("failed to persist chat history", "key", p.key, "error", err)
		return
	}
	p.metrics.ObservePersist(metrics.OutcomeSuccess)
}

// close writes any pending snapshot and stops the writer.
func (p *persister) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	close(p.wake)
	p.mu.Unlock()
	<-p.done
}
