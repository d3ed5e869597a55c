package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// DefaultSubscriptionBuffer is the per-subscriber ticket buffer.
const DefaultSubscriptionBuffer = 64

var (
	// ErrNoSubscriber is returned when the recipient has no open subscription.
	ErrNoSubscriber = errors.New("recipient is not connected")
	// ErrSubscriberBusy is returned when every subscription of the recipient has a full buffer.
	ErrSubscriberBusy = errors.New("recipient buffer is full")
)

// subscription is one open watch of a member.
type subscription struct {
	memberID crew.MemberID
	tickets  chan *crew.Ticket
	// closed is set once tickets is closed. Guarded by Hub.mu.
	closed bool
}

// Hub fans tickets out to subscribed crew members. A member may hold several
// subscriptions, e.g. one per device; each receives every ticket.
type Hub struct {
	mu          sync.Mutex
	subscribers map[crew.MemberID][]*subscription
	buffer      int
	closed      bool
}

// NewHub creates a hub whose subscriptions buffer up to buffer tickets.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}

	return &Hub{
		subscribers: make(map[crew.MemberID][]*subscription),
		buffer:      buffer,
	}
}

// Subscribe opens a subscription for the member. The returned cancel function
// removes it and closes the channel; it is safe to call more than once.
// After Close the returned channel is already closed.
func (h *Hub) Subscribe(memberID crew.MemberID) (<-chan *crew.Ticket, func()) {
	sub := &subscription{
		memberID: memberID,
		tickets:  make(chan *crew.Ticket, h.buffer),
	}

	h.mu.Lock()
	if h.closed {
		sub.closed = true
		close(sub.tickets)
	} else {
		h.subscribers[memberID] = append(h.subscribers[memberID], sub)
	}
	h.mu.Unlock()

	var once sync.Once

	return sub.tickets, func() {
		once.Do(func() { h.remove(sub) })
	}
}

// remove drops a subscription and closes its channel.
func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.closed {
		return
	}

	subs := h.subscribers[sub.memberID]
	for i, existing := range subs {
		if existing == sub {
			subs = append(subs[:i], subs[i+1:]...)

			break
		}
	}

	if len(subs) == 0 {
		delete(h.subscribers, sub.memberID)
	} else {
		h.subscribers[sub.memberID] = subs
	}

	sub.closed = true
	close(sub.tickets)
}

// Close ends every open subscription and refuses new ones, so watchers
// return and the transport can stop. It is safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for memberID, subs := range h.subscribers {
		for _, sub := range subs {
			sub.closed = true
			close(sub.tickets)
		}

		delete(h.subscribers, memberID)
	}
}

// Subscribers returns the number of open subscriptions of a member.
func (h *Hub) Subscribers(memberID crew.MemberID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers[memberID])
}

// Notify hands the ticket to every subscription of the recipient without
// blocking. It succeeds if at least one subscription accepted the ticket.
func (h *Hub) Notify(_ context.Context, recipient crew.MemberID, ticket *crew.Ticket) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[recipient]
	if len(subs) == 0 {
		return fmt.Errorf("%w: member %d", ErrNoSubscriber, recipient)
	}

	delivered := 0

	for _, sub := range subs {
		select {
		case sub.tickets <- ticket.Clone():
			delivered++
		default:
		}
	}

	if delivered == 0 {
		return fmt.Errorf("%w: member %d", ErrSubscriberBusy, recipient)
	}

	return nil
}
