package crew

import (
	domain "github.com/oshokin/crew-alert/internal/domain/crew"
)

// Caller carries the identity asserted by the client on every request.
type Caller struct {
	Role     domain.Role     `cbor:"role"`
	MemberID domain.MemberID `cbor:"member_id,omitempty"`
	Name     string          `cbor:"name,omitempty"`
}

// CallerFrom converts an identity into its wire form.
func CallerFrom(who domain.Identity) Caller {
	return Caller{
		Role:     who.Role,
		MemberID: who.MemberID,
		Name:     who.Name,
	}
}

// Identity converts the wire form back into an identity.
func (c Caller) Identity() domain.Identity {
	return domain.Identity{
		Role:     c.Role,
		MemberID: c.MemberID,
		Name:     c.Name,
	}
}

type (
	// LoginRequest exchanges an access code for a role.
	LoginRequest struct {
		Code string `cbor:"code"`
	}
	// LoginResponse carries the granted role.
	LoginResponse struct {
		Role domain.Role `cbor:"role"`
	}

	// SubmitRegistrationRequest files a registration.
	SubmitRegistrationRequest struct {
		Caller    Caller `cbor:"caller"`
		FirstName string `cbor:"first_name"`
		LastName  string `cbor:"last_name"`
	}
	// SubmitRegistrationResponse carries the pending request.
	SubmitRegistrationResponse struct {
		Request domain.RegistrationRequest `cbor:"request"`
	}

	// ListPendingRequest lists pending registrations.
	ListPendingRequest struct {
		Caller Caller `cbor:"caller"`
	}
	// ListPendingResponse holds pending registrations, oldest first.
	ListPendingResponse struct {
		Requests []domain.RegistrationRequest `cbor:"requests"`
	}

	// AcceptRequest accepts a registration with the given rank.
	AcceptRequest struct {
		Caller    Caller           `cbor:"caller"`
		RequestID domain.RequestID `cbor:"request_id"`
		Rank      domain.Rank      `cbor:"rank"`
	}
	// AcceptResponse carries the new member.
	AcceptResponse struct {
		Member domain.CrewMember `cbor:"member"`
	}

	// RejectRequest rejects a registration.
	RejectRequest struct {
		Caller    Caller           `cbor:"caller"`
		RequestID domain.RequestID `cbor:"request_id"`
	}
	// RejectResponse carries the discarded request.
	RejectResponse struct {
		Request domain.RegistrationRequest `cbor:"request"`
	}

	// AssignRequest moves a member. A nil VehicleID unassigns.
	AssignRequest struct {
		Caller    Caller            `cbor:"caller"`
		MemberID  domain.MemberID   `cbor:"member_id"`
		VehicleID *domain.VehicleID `cbor:"vehicle_id,omitempty"`
	}
	// AssignResponse carries the updated member.
	AssignResponse struct {
		Member domain.CrewMember `cbor:"member"`
	}

	// ListMembersRequest lists the roster.
	ListMembersRequest struct {
		Caller Caller `cbor:"caller"`
	}
	// ListMembersResponse holds members sorted by id.
	ListMembersResponse struct {
		Members []domain.CrewMember `cbor:"members"`
	}

	// ListVehiclesRequest lists the fleet.
	ListVehiclesRequest struct {
		Caller Caller `cbor:"caller"`
	}
	// ListVehiclesResponse holds vehicles with their current crews.
	ListVehiclesResponse struct {
		Vehicles []domain.VehicleWithCrew `cbor:"vehicles"`
	}

	// CrewOfRequest asks for the crew of a vehicle.
	CrewOfRequest struct {
		Caller    Caller           `cbor:"caller"`
		VehicleID domain.VehicleID `cbor:"vehicle_id"`
	}
	// CrewOfResponse holds sorted member ids.
	CrewOfResponse struct {
		MemberIDs []domain.MemberID `cbor:"member_ids"`
	}

	// SendRequest sends a ticket to the crew of a vehicle.
	SendRequest struct {
		Caller    Caller           `cbor:"caller"`
		VehicleID domain.VehicleID `cbor:"vehicle_id"`
		Message   string           `cbor:"message"`
	}
	// SendResponse carries the ticket and a warning when nobody was notified.
	SendResponse struct {
		Ticket  domain.Ticket `cbor:"ticket"`
		Warning string        `cbor:"warning,omitempty"`
	}

	// ListTicketsRequest lists tickets, optionally for one vehicle.
	ListTicketsRequest struct {
		Caller    Caller            `cbor:"caller"`
		VehicleID *domain.VehicleID `cbor:"vehicle_id,omitempty"`
	}
	// TicketReport is a ticket with its delivery counters.
	TicketReport struct {
		Ticket   domain.Ticket        `cbor:"ticket"`
		Delivery domain.DeliveryStats `cbor:"delivery"`
	}
	// ListTicketsResponse holds tickets, newest first.
	ListTicketsResponse struct {
		Tickets []TicketReport `cbor:"tickets"`
	}

	// ListLogRequest reads the audit log.
	ListLogRequest struct {
		Caller Caller `cbor:"caller"`
	}
	// ListLogResponse holds audit entries, newest first.
	ListLogResponse struct {
		Entries []domain.LogEntry `cbor:"entries"`
	}

	// WatchRequest opens a ticket stream for a crew member.
	WatchRequest struct {
		Caller   Caller          `cbor:"caller"`
		MemberID domain.MemberID `cbor:"member_id"`
	}
	// WatchEvent is one message of the stream. The first event only confirms
	// the subscription; later events carry a ticket.
	WatchEvent struct {
		Subscribed bool           `cbor:"subscribed,omitempty"`
		Ticket     *domain.Ticket `cbor:"ticket,omitempty"`
	}
)
