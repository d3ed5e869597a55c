package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/crew-alert/internal/delivery"
	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/repository/state"
	"github.com/oshokin/crew-alert/internal/service/auditlog"
	"github.com/oshokin/crew-alert/internal/service/directory"
	"github.com/oshokin/crew-alert/internal/service/dispatch"
	"github.com/oshokin/crew-alert/internal/service/registration"
)

// DefaultSender signs tickets sent by a supervisor without a display name.
const DefaultSender = "Chef"

// errLoginDisabled is returned by Login when no authenticator is configured.
var errLoginDisabled = fmt.Errorf("%w: login is not configured", crew.ErrForbidden)

// Authenticator maps an access code to a role.
type Authenticator interface {
	Login(code string) (crew.Role, error)
}

// Engine is the facade over all crew-alert state.
type Engine struct {
	// mu serializes mutations; reads share it.
	mu sync.RWMutex

	directory    *directory.Directory
	queue        *registration.Queue
	dispatcher   *dispatch.Dispatcher
	audit        *auditlog.Log
	authenticate Authenticator

	// hub streams tickets to watching crew members.
	hub *delivery.Hub
	// pool runs notifications off the mutation path.
	pool *delivery.Pool
	// persister saves snapshots off the mutation path. Nil without a repository.
	persister *persister

	now       func() time.Time
	closeOnce sync.Once
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	fleet         []crew.Vehicle
	auditCapacity int
	seedDemoCrew  bool
	authenticator Authenticator
	channel       delivery.Channel
	hub           *delivery.Hub
	poolOptions   []delivery.PoolOption
	now           func() time.Time
	newRequestID  func() crew.RequestID
}

// WithFleet sets the vehicles of the station.
func WithFleet(fleet []crew.Vehicle) Option {
	return func(o *options) {
		o.fleet = fleet
	}
}

// WithAuditCapacity bounds the audit log.
func WithAuditCapacity(n int) Option {
	return func(o *options) {
		o.auditCapacity = n
	}
}

// WithDemoCrew seeds a demonstration roster when the store is empty.
func WithDemoCrew(enabled bool) Option {
	return func(o *options) {
		o.seedDemoCrew = enabled
	}
}

// WithAuthenticator enables Login.
func WithAuthenticator(a Authenticator) Option {
	return func(o *options) {
		o.authenticator = a
	}
}

// WithChannel sets where ticket notifications go. Defaults to the hub.
func WithChannel(channel delivery.Channel) Option {
	return func(o *options) {
		o.channel = channel
	}
}

// WithHub sets the hub used by Watch.
func WithHub(hub *delivery.Hub) Option {
	return func(o *options) {
		o.hub = hub
	}
}

// WithPoolOptions tunes the delivery pool.
func WithPoolOptions(opts ...delivery.PoolOption) Option {
	return func(o *options) {
		o.poolOptions = append(o.poolOptions, opts...)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithRequestIDGenerator replaces the UUID generator of registration requests.
func WithRequestIDGenerator(fn func() crew.RequestID) Option {
	return func(o *options) {
		o.newRequestID = fn
	}
}

// deferredOutbox forwards to the pool, which is created after the dispatcher.
type deferredOutbox struct {
	pool *delivery.Pool
}

func (o *deferredOutbox) Dispatch(ticket *crew.Ticket) {
	o.pool.Dispatch(ticket)
}

// New builds an engine and restores state from repo. A nil repo keeps state in
// memory only.
func New(ctx context.Context, repo state.Repository, opts ...Option) (*Engine, error) {
	ctx = logger.WithName(ctx, "engine")

	o := options{
		auditCapacity: auditlog.DefaultCapacity,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.hub == nil {
		o.hub = delivery.NewHub(delivery.DefaultSubscriptionBuffer)
	}

	if o.channel == nil {
		o.channel = o.hub
	}

	queueOptions := []registration.Option{registration.WithClock(o.now)}
	if o.newRequestID != nil {
		queueOptions = append(queueOptions, registration.WithIDGenerator(o.newRequestID))
	}

	var (
		outbox = new(deferredOutbox)
		dir    = directory.New(o.fleet)
		e      = &Engine{
			directory:    dir,
			queue:        registration.NewQueue(queueOptions...),
			dispatcher:   dispatch.New(dir, outbox, o.now),
			audit:        auditlog.New(o.auditCapacity, o.now),
			authenticate: o.authenticator,
			hub:          o.hub,
			now:          o.now,
		}
	)

	dirty, err := e.restore(ctx, repo, o.seedDemoCrew)
	if err != nil {
		return nil, err
	}

	poolOptions := append([]delivery.PoolOption{delivery.WithResultHandler(e.record)}, o.poolOptions...)
	outbox.pool = delivery.NewPool(ctx, o.channel, poolOptions...)
	e.pool = outbox.pool

	if repo != nil {
		e.persister = newPersister(ctx, repo)
		if dirty {
			e.persister.Submit(e.snapshotLocked())
		}
	}

	logger.InfoKV(ctx, "Engine ready",
		"vehicles", len(dir.Fleet()),
		"members", len(dir.Members()),
		"pending", len(e.queue.Pending()),
		"tickets", len(e.dispatcher.History()))

	return e, nil
}

// restore loads the saved snapshot. It reports whether the loaded state was
// changed and needs saving.
func (e *Engine) restore(ctx context.Context, repo state.Repository, seedDemoCrew bool) (bool, error) {
	if repo == nil {
		return e.seedIfEnabled(ctx, seedDemoCrew), nil
	}

	snapshot, err := repo.Load(ctx)

	switch {
	case err == nil && snapshot != nil:
	case err == nil, errors.Is(err, state.ErrNotFound):
		return e.seedIfEnabled(ctx, seedDemoCrew), nil
	default:
		return false, fmt.Errorf("load state: %w", err)
	}

	orphans := e.directory.Restore(snapshot.Members, snapshot.Sequences.NextMemberID)
	e.queue.Restore(snapshot.Pending, snapshot.Resolutions)
	e.dispatcher.Restore(snapshot.Tickets, snapshot.Sequences.NextTicketID)
	e.audit.Restore(snapshot.Log, snapshot.Sequences.NextLogID)

	for _, id := range orphans {
		logger.WarnKV(ctx, "Member was assigned to a vehicle outside the fleet, unassigned", "member_id", id)
		e.audit.Appendf("Member #%d unassigned: vehicle no longer in the fleet", id)
	}

	return len(orphans) > 0, nil
}

func (e *Engine) seedIfEnabled(ctx context.Context, enabled bool) bool {
	if !enabled {
		return false
	}

	seeded := seedDemoCrew(e.directory, e.now())
	e.audit.Appendf("Demo crew seeded: %d members", seeded)
	logger.InfoKV(ctx, "Demo crew seeded", "members", seeded)

	return seeded > 0
}

// Close ends open watches, stops delivery workers after the queue drains and
// saves the last snapshot.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.hub.Close()
		e.pool.Close()

		if e.persister != nil {
			e.persister.Close()
		}
	})
}

// commit records a successful mutation. The write lock must be held.
func (e *Engine) commit(ctx context.Context, text string) {
	entry := e.audit.Append(text)
	logger.DebugKV(ctx, "Audit entry appended", "log_id", entry.ID, "text", entry.Text)

	if e.persister != nil {
		e.persister.Submit(e.snapshotLocked())
	}
}

// snapshotLocked copies the whole state. The caller holds mu.
func (e *Engine) snapshotLocked() *crew.Snapshot {
	return &crew.Snapshot{
		Vehicles:    e.directory.Fleet(),
		Members:     e.directory.Members(),
		Pending:     e.queue.Pending(),
		Resolutions: e.queue.Resolutions(),
		Tickets:     e.dispatcher.History(),
		Log:         e.audit.Entries(),
		Sequences: crew.Sequences{
			NextMemberID: e.directory.NextMemberID(),
			NextTicketID: e.dispatcher.NextID(),
			NextLogID:    e.audit.NextID(),
		},
	}
}

// record updates delivery bookkeeping. Workers log their own failures;
// notifications dropped before reaching a worker are logged here.
func (e *Engine) record(result delivery.Result) {
	e.dispatcher.Record(result)

	if errors.Is(result.Err, delivery.ErrQueueFull) || errors.Is(result.Err, delivery.ErrPoolClosed) {
		logger.WarnKV(logger.WithName(context.Background(), "engine"), "Ticket notification dropped",
			"ticket_id", result.TicketID,
			"member_id", result.Recipient,
			"error", result.Err)
	}
}

// requireSupervisor fails with crew.ErrForbidden for anyone else.
func requireSupervisor(who crew.Identity, action string) error {
	if err := who.Validate(); err != nil {
		return err
	}

	if !who.IsSupervisor() {
		return fmt.Errorf("%w: %s may not %s", crew.ErrForbidden, who, action)
	}

	return nil
}

// actorName is how an identity appears in audit entries.
func actorName(who crew.Identity) string {
	return who.String()
}
