package dispatch

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oshokin/crew-alert/internal/delivery"
	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// CrewSource resolves vehicles and their current crew.
// directory.Directory satisfies it.
type CrewSource interface {
	Vehicle(id crew.VehicleID) (crew.Vehicle, error)
	CrewOf(id crew.VehicleID) ([]crew.MemberID, error)
}

// Outbox accepts tickets for asynchronous delivery.
// delivery.Pool satisfies it.
type Outbox interface {
	Dispatch(ticket *crew.Ticket)
}

// counters holds the delivery outcome of one ticket.
type counters struct {
	delivered atomic.Int64
	failed    atomic.Int64
}

// Dispatcher owns the ticket history. Send and Restore must be serialized by
// the caller; Deliver, Record and Stats may run concurrently with anything.
type Dispatcher struct {
	// source provides vehicles and crews.
	source CrewSource
	// outbox queues notifications.
	outbox Outbox
	// tickets holds the history, oldest first.
	tickets []*crew.Ticket
	// nextID is the id of the next ticket.
	nextID crew.TicketID
	// now returns the current time.
	now func() time.Time
	// stats maps crew.TicketID to *counters.
	stats sync.Map
}

// New creates a dispatcher. A nil outbox discards notifications.
func New(source CrewSource, outbox Outbox, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}

	return &Dispatcher{
		source: source,
		outbox: outbox,
		nextID: 1,
		now:    now,
	}
}

// Restore loads tickets saved earlier (oldest first).
func (d *Dispatcher) Restore(tickets []crew.Ticket, next crew.TicketID) {
	d.tickets = make([]*crew.Ticket, 0, len(tickets))
	d.nextID = max(next, 1)

	for i := range tickets {
		ticket := tickets[i].Clone()
		d.tickets = append(d.tickets, ticket)
		d.stats.Store(ticket.ID, new(counters))

		if ticket.ID >= d.nextID {
			d.nextID = ticket.ID + 1
		}
	}
}

// Send creates a ticket for the vehicle with the crew assigned right now as
// its recipients. It does not notify anyone: call Deliver with the result.
func (d *Dispatcher) Send(vehicleID crew.VehicleID, message, sender string) (*crew.Ticket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", crew.ErrInvalidInput)
	}

	vehicle, err := d.source.Vehicle(vehicleID)
	if err != nil {
		return nil, err
	}

	recipients, err := d.source.CrewOf(vehicleID)
	if err != nil {
		return nil, err
	}

	ticket := &crew.Ticket{
		ID:           d.nextID,
		VehicleID:    vehicle.ID,
		VehicleName:  vehicle.Name,
		Message:      message,
		Sender:       sender,
		CreatedAt:    d.now(),
		RecipientIDs: slices.Clone(recipients),
	}

	if ticket.RecipientIDs == nil {
		ticket.RecipientIDs = []crew.MemberID{}
	}

	d.nextID++
	d.tickets = append(d.tickets, ticket)
	d.stats.Store(ticket.ID, new(counters))

	return ticket.Clone(), nil
}

// Deliver queues one notification per recipient. Tickets without recipients
// are skipped.
func (d *Dispatcher) Deliver(ticket *crew.Ticket) {
	if d.outbox == nil || ticket == nil || len(ticket.RecipientIDs) == 0 {
		return
	}

	d.outbox.Dispatch(ticket)
}

// Record counts a delivery outcome. Results for unknown tickets are ignored.
func (d *Dispatcher) Record(result delivery.Result) {
	value, ok := d.stats.Load(result.TicketID)
	if !ok {
		return
	}

	c, _ := value.(*counters)
	if result.Err != nil {
		c.failed.Add(1)

		return
	}

	c.delivered.Add(1)
}

// Stats returns the delivery counters of a ticket.
func (d *Dispatcher) Stats(id crew.TicketID) crew.DeliveryStats {
	value, ok := d.stats.Load(id)
	if !ok {
		return crew.DeliveryStats{}
	}

	c, _ := value.(*counters)

	return crew.DeliveryStats{
		Delivered: int(c.delivered.Load()),
		Failed:    int(c.failed.Load()),
	}
}

// Tickets returns tickets matching keep, newest first, with their delivery stats.
// A nil keep returns every ticket.
func (d *Dispatcher) Tickets(keep func(*crew.Ticket) bool) []crew.TicketReport {
	result := make([]crew.TicketReport, 0, len(d.tickets))

	for i := len(d.tickets) - 1; i >= 0; i-- {
		ticket := d.tickets[i]
		if keep != nil && !keep(ticket) {
			continue
		}

		result = append(result, crew.TicketReport{
			Ticket:   ticket.Clone(),
			Delivery: d.Stats(ticket.ID),
		})
	}

	return result
}

// History returns copies of all tickets, oldest first.
func (d *Dispatcher) History() []crew.Ticket {
	result := make([]crew.Ticket, 0, len(d.tickets))
	for _, t := range d.tickets {
		result = append(result, *t.Clone())
	}

	return result
}

// NextID returns the id of the next ticket.
func (d *Dispatcher) NextID() crew.TicketID {
	return d.nextID
}

// ForVehicle returns a filter keeping tickets addressed to the vehicle.
func ForVehicle(vehicleID crew.VehicleID) func(*crew.Ticket) bool {
	return func(t *crew.Ticket) bool {
		return t.VehicleID == vehicleID
	}
}
