package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/repository/state"
)

var (
	errTestLoad = errors.New("test load error")
	errTestSave = errors.New("test save error")
	errTestSend = errors.New("test delivery error")
)

// testNow is the fixed clock of engine tests.
func testNow() time.Time {
	return time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)
}

// testFleet mirrors the default station fleet.
func testFleet() []crew.Vehicle {
	return []crew.Vehicle{
		{ID: 1, Name: "VL - 12A"},
		{ID: 2, Name: "FPT - 34B"},
	}
}

// memoryRepository is an in-memory Repository recording every save.
type memoryRepository struct {
	mu sync.Mutex
	// snapshot is returned by Load.
	snapshot *crew.Snapshot
	// loadErr is returned by Load.
	loadErr error
	// saveErr is returned by Save.
	saveErr error
	// saved holds every snapshot passed to Save.
	saved []*crew.Snapshot
}

func (m *memoryRepository) Load(context.Context) (*crew.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}

	if m.snapshot == nil {
		return nil, state.ErrNotFound
	}

	return m.snapshot.Clone(), nil
}

func (m *memoryRepository) Save(_ context.Context, s *crew.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	m.saved = append(m.saved, s.Clone())
	m.snapshot = s.Clone()

	return nil
}

// last returns the most recently saved snapshot.
func (m *memoryRepository) last() *crew.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.saved) == 0 {
		return nil
	}

	return m.saved[len(m.saved)-1]
}

// notification is one recorded Notify call.
type notification struct {
	recipient crew.MemberID
	ticketID  crew.TicketID
}

// recordingChannel records notifications and fails for selected members.
type recordingChannel struct {
	mu      sync.Mutex
	calls   []notification
	failFor map[crew.MemberID]bool
}

func (c *recordingChannel) Notify(_ context.Context, recipient crew.MemberID, ticket *crew.Ticket) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, notification{recipient: recipient, ticketID: ticket.ID})

	if c.failFor[recipient] {
		return errTestSend
	}

	return nil
}

func (c *recordingChannel) notifications() []notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]notification(nil), c.calls...)
}

// hangingChannel blocks every Notify until unblock is called, ignoring the context.
type hangingChannel struct {
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (c *hangingChannel) Notify(context.Context, crew.MemberID, *crew.Ticket) error {
	select {
	case c.entered <- struct{}{}:
	default:
	}

	<-c.release

	return nil
}

func (c *hangingChannel) unblock() {
	c.once.Do(func() { close(c.release) })
}

// staticAuthenticator accepts fixed codes.
type staticAuthenticator map[string]crew.Role

func (a staticAuthenticator) Login(code string) (crew.Role, error) {
	role, ok := a[code]
	if !ok {
		return "", crew.ErrForbidden
	}

	return role, nil
}
