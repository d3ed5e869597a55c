package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
)

const (
	// DefaultWorkers is the number of concurrent notifications.
	DefaultWorkers = 4
	// DefaultQueueSize is the number of notifications waiting for a worker.
	DefaultQueueSize = 1024
	// DefaultNotifyTimeout bounds a single notification.
	DefaultNotifyTimeout = 5 * time.Second
)

var (
	// ErrQueueFull is reported when a notification is dropped because every worker is busy.
	ErrQueueFull = errors.New("delivery queue is full")
	// ErrPoolClosed is reported for notifications dispatched after Close.
	ErrPoolClosed = errors.New("delivery pool is closed")
)

// Result is the outcome of one notification.
type Result struct {
	TicketID  crew.TicketID
	Recipient crew.MemberID
	// Err is nil when the channel accepted the notification.
	Err error
}

// task is one queued notification.
type task struct {
	recipient crew.MemberID
	ticket    *crew.Ticket
}

// Pool delivers tickets to their recipients on background workers.
type Pool struct {
	// channel performs the notifications.
	channel Channel
	// tasks is the bounded queue consumed by workers.
	tasks chan task
	// workers is the number of worker goroutines.
	workers int
	// timeout bounds each Notify call.
	timeout time.Duration
	// onResult receives every outcome, including dropped notifications.
	onResult func(Result)

	// mu guards closed against concurrent Dispatch and Close.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of workers.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.tasks = make(chan task, n)
		}
	}
}

// WithNotifyTimeout sets the per-notification timeout.
func WithNotifyTimeout(timeout time.Duration) PoolOption {
	return func(p *Pool) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithResultHandler registers the bookkeeping callback. It is called from worker
// goroutines and from Dispatch, so it must be safe for concurrent use.
func WithResultHandler(fn func(Result)) PoolOption {
	return func(p *Pool) {
		if fn != nil {
			p.onResult = fn
		}
	}
}

// NewPool creates a pool and starts its workers. Workers stop after Close
// once the queue is drained; ctx only supplies the logger.
func NewPool(ctx context.Context, channel Channel, opts ...PoolOption) *Pool {
	p := &Pool{
		channel:  channel,
		tasks:    make(chan task, DefaultQueueSize),
		workers:  DefaultWorkers,
		timeout:  DefaultNotifyTimeout,
		onResult: func(Result) {},
	}

	for _, opt := range opts {
		opt(p)
	}

	ctx = logger.WithName(context.WithoutCancel(ctx), "delivery")

	p.wg.Add(p.workers)

	for range p.workers {
		go p.work(ctx)
	}

	return p
}

// Dispatch queues one notification per ticket recipient and returns immediately.
// Notifications that cannot be queued are reported as failed results.
func (p *Pool) Dispatch(ticket *crew.Ticket) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, recipient := range ticket.RecipientIDs {
		if p.closed {
			p.onResult(Result{TicketID: ticket.ID, Recipient: recipient, Err: ErrPoolClosed})

			continue
		}

		select {
		case p.tasks <- task{recipient: recipient, ticket: ticket}:
		default:
			p.onResult(Result{TicketID: ticket.ID, Recipient: recipient, Err: ErrQueueFull})
		}
	}
}

// Close stops accepting notifications and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return
	}

	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// work consumes the queue until it is closed.
func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()

	for t := range p.tasks {
		err := p.notify(ctx, t)
		if err != nil {
			logger.WarnKV(ctx, "Ticket notification failed",
				"ticket_id", t.ticket.ID,
				"recipient", t.recipient,
				"error", err,
			)
		}

		p.onResult(Result{TicketID: t.ticket.ID, Recipient: t.recipient, Err: err})
	}
}

// notify runs one Notify call with a timeout and turns panics into errors.
func (p *Pool) notify(ctx context.Context, t task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery channel panicked: %v", r)
		}
	}()

	return p.channel.Notify(ctx, t.recipient, t.ticket)
}
