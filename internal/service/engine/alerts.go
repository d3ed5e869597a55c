package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/service/dispatch"
)

// SendResult is the outcome of Send.
type SendResult struct {
	Ticket *crew.Ticket
	// Warning is set when the ticket was created but nobody will be notified.
	Warning string
}

// Send creates a ticket for the crew currently assigned to the vehicle and
// queues one notification per recipient.
func (e *Engine) Send(
	ctx context.Context,
	who crew.Identity,
	vehicleID crew.VehicleID,
	message string,
) (*SendResult, error) {
	if err := requireSupervisor(who, "send tickets"); err != nil {
		return nil, err
	}

	sender := strings.TrimSpace(who.Name)
	if sender == "" {
		sender = DefaultSender
	}

	e.mu.Lock()

	ticket, err := e.dispatcher.Send(vehicleID, message, sender)
	if err != nil {
		e.mu.Unlock()

		return nil, err
	}

	e.commit(ctx, fmt.Sprintf("Ticket #%d sent to %s by %s: %d recipient(s)",
		ticket.ID, ticket.VehicleName, actorName(who), len(ticket.RecipientIDs)))
	e.mu.Unlock()

	result := &SendResult{Ticket: ticket}

	if len(ticket.RecipientIDs) == 0 {
		result.Warning = fmt.Sprintf("no crew member is assigned to %s, nobody was notified", ticket.VehicleName)
		logger.WarnKV(ctx, "Ticket has no recipients", "ticket_id", ticket.ID, "vehicle", ticket.VehicleName)

		return result, nil
	}

	e.dispatcher.Deliver(ticket)
	logger.InfoKV(ctx, "Ticket sent",
		"ticket_id", ticket.ID,
		"vehicle", ticket.VehicleName,
		"recipients", len(ticket.RecipientIDs))

	return result, nil
}

// ListTickets returns tickets newest first with their delivery counters.
// Supervisors may filter by vehicle; crew members only get tickets addressed
// to their current vehicle.
func (e *Engine) ListTickets(
	_ context.Context,
	who crew.Identity,
	vehicleID *crew.VehicleID,
) ([]crew.TicketReport, error) {
	if err := who.Validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if who.IsSupervisor() {
		if vehicleID == nil {
			return e.dispatcher.Tickets(nil), nil
		}

		if _, err := e.directory.Vehicle(*vehicleID); err != nil {
			return nil, err
		}

		return e.dispatcher.Tickets(dispatch.ForVehicle(*vehicleID)), nil
	}

	own := e.ownVehicle(who)
	if own == nil {
		return []crew.TicketReport{}, nil
	}

	if vehicleID != nil && *vehicleID != *own {
		return nil, fmt.Errorf("%w: %s is not assigned to vehicle %d", crew.ErrForbidden, who, *vehicleID)
	}

	return e.dispatcher.Tickets(dispatch.ForVehicle(*own)), nil
}

// Watch subscribes a crew member to tickets addressed to them. The returned
// cancel function ends the subscription and closes the channel.
func (e *Engine) Watch(
	ctx context.Context,
	who crew.Identity,
	memberID crew.MemberID,
) (<-chan *crew.Ticket, func(), error) {
	if err := who.Validate(); err != nil {
		return nil, nil, err
	}

	if who.IsSupervisor() || who.MemberID != memberID {
		return nil, nil, fmt.Errorf("%w: %s may not watch member %d", crew.ErrForbidden, who, memberID)
	}

	e.mu.RLock()
	_, err := e.directory.Member(memberID)
	e.mu.RUnlock()

	if err != nil {
		return nil, nil, err
	}

	tickets, cancel := e.hub.Subscribe(memberID)
	logger.InfoKV(ctx, "Crew member watching", "member_id", memberID, "subscriptions", e.hub.Subscribers(memberID))

	return tickets, cancel, nil
}
