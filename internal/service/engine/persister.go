package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/repository/state"
)

// persister saves snapshots on a background goroutine. Only the latest
// snapshot matters: one submitted while a save is running replaces any
// snapshot still waiting.
type persister struct {
	repo state.Repository

	mu     sync.Mutex
	latest *crew.Snapshot
	closed bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	saves    atomic.Uint64
	failures atomic.Uint64
}

// newPersister starts the save loop. ctx supplies the logger only.
func newPersister(ctx context.Context, repo state.Repository) *persister {
	p := &persister{
		repo: repo,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go p.run(logger.WithName(context.WithoutCancel(ctx), "persister"))

	return p
}

// Submit schedules snapshot for saving and returns immediately.
func (p *persister) Submit(snapshot *crew.Snapshot) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return
	}

	p.latest = snapshot
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close saves the pending snapshot, if any, and stops the loop.
func (p *persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done

		return
	}

	p.closed = true
	p.mu.Unlock()

	close(p.stop)
	<-p.done
}

func (p *persister) run(ctx context.Context) {
	defer close(p.done)

	for {
		select {
		case <-p.wake:
			p.flush(ctx)
		case <-p.stop:
			p.flush(ctx)

			return
		}
	}
}

func (p *persister) flush(ctx context.Context) {
	p.mu.Lock()
	snapshot := p.latest
	p.latest = nil
	p.mu.Unlock()

	if snapshot == nil {
		return
	}

	if err := p.repo.Save(ctx, snapshot); err != nil {
		p.failures.Add(1)
		logger.WarnKV(ctx, "Failed to persist state, keeping in-memory copy", "error", err)

		return
	}

	p.saves.Add(1)
	logger.DebugKV(ctx, "State persisted", "members", len(snapshot.Members), "tickets", len(snapshot.Tickets))
}
