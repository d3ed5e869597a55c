package crew

import (
	"slices"
	"time"
)

type (
	// MemberID identifies a crew member. Ids are never reused.
	MemberID uint64
	// VehicleID identifies a vehicle of the fleet.
	VehicleID uint64
	// TicketID identifies a ticket. Ids grow with creation time.
	TicketID uint64
	// RequestID identifies a registration request. It is a UUID string.
	RequestID string
)

// CrewMember is an approved member of the roster.
type CrewMember struct {
	// ID is unique across all members ever created.
	ID MemberID `cbor:"id"`
	// FullName is "first last" as submitted in the registration request.
	FullName string `cbor:"full_name"`
	// Rank is the member's grade.
	Rank Rank `cbor:"rank"`
	// AssignedVehicleID is nil when the member is not assigned to any vehicle.
	AssignedVehicleID *VehicleID `cbor:"assigned_vehicle_id,omitempty"`
	// RegisteredAt is when the registration was accepted.
	RegisteredAt time.Time `cbor:"registered_at"`
}

// Clone returns a deep copy of the member.
func (m *CrewMember) Clone() *CrewMember {
	if m == nil {
		return nil
	}

	cloned := *m
	if m.AssignedVehicleID != nil {
		vehicleID := *m.AssignedVehicleID
		cloned.AssignedVehicleID = &vehicleID
	}

	return &cloned
}

// AssignedTo reports whether the member is assigned to the given vehicle.
func (m *CrewMember) AssignedTo(vehicleID VehicleID) bool {
	return m.AssignedVehicleID != nil && *m.AssignedVehicleID == vehicleID
}

// Vehicle is a response vehicle of the fixed fleet.
type Vehicle struct {
	ID   VehicleID `cbor:"id"   yaml:"id"`
	Name string    `cbor:"name" yaml:"name"`
}

// VehicleWithCrew is a read view of a vehicle together with the members
// currently assigned to it. The crew is computed on every read.
type VehicleWithCrew struct {
	Vehicle

	// Crew holds the assigned member ids in ascending order.
	Crew []MemberID `cbor:"crew"`
}

// RegistrationRequest is a pending application to join the roster.
type RegistrationRequest struct {
	ID          RequestID `cbor:"id"`
	FirstName   string    `cbor:"first_name"`
	LastName    string    `cbor:"last_name"`
	SubmittedAt time.Time `cbor:"submitted_at"`
}

// FullName joins first and last names.
func (r *RegistrationRequest) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Clone returns a copy of the request.
func (r *RegistrationRequest) Clone() *RegistrationRequest {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}

// Outcome is the terminal state of a registration request.
type Outcome string

const (
	// OutcomeAccepted means the request produced a crew member.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected means the request was discarded.
	OutcomeRejected Outcome = "rejected"
)

// Resolution records that a request left the pending state.
type Resolution struct {
	RequestID  RequestID `cbor:"request_id"`
	Outcome    Outcome   `cbor:"outcome"`
	ResolvedAt time.Time `cbor:"resolved_at"`
	// MemberID is set for accepted requests.
	MemberID MemberID `cbor:"member_id,omitempty"`
}

// Ticket is an immutable alert record addressed to the crew of a vehicle.
type Ticket struct {
	ID        TicketID  `cbor:"id"`
	VehicleID VehicleID `cbor:"vehicle_id"`
	// VehicleName is captured at send time.
	VehicleName string `cbor:"vehicle_name"`
	Message     string `cbor:"message"`
	// Sender is the display name of the supervisor who sent the ticket.
	Sender    string    `cbor:"sender"`
	CreatedAt time.Time `cbor:"created_at"`
	// RecipientIDs is the crew of the vehicle at send time. It is never recomputed.
	RecipientIDs []MemberID `cbor:"recipient_ids"`
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}

	cloned := *t
	cloned.RecipientIDs = slices.Clone(t.RecipientIDs)

	return &cloned
}

// HasRecipient reports whether the member was part of the ticket audience.
func (t *Ticket) HasRecipient(memberID MemberID) bool {
	return slices.Contains(t.RecipientIDs, memberID)
}

// DeliveryStats counts notification outcomes of a ticket.
type DeliveryStats struct {
	Delivered int `cbor:"delivered"`
	Failed    int `cbor:"failed"`
}

// Pending returns how many notifications have not completed yet.
func (s DeliveryStats) Pending(recipients int) int {
	return max(recipients-s.Delivered-s.Failed, 0)
}

// TicketReport is a ticket together with its delivery bookkeeping.
type TicketReport struct {
	Ticket   *Ticket
	Delivery DeliveryStats
}

// LogEntry is one line of the audit log.
type LogEntry struct {
	ID        uint64    `cbor:"id"`
	Timestamp time.Time `cbor:"timestamp"`
	Text      string    `cbor:"text"`
}
