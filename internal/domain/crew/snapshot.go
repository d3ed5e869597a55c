package crew

import "slices"

// Collection names under which a Snapshot is stored.
const (
	CollectionVehicles    = "vehicles"
	CollectionMembers     = "members"
	CollectionPending     = "pending"
	CollectionResolutions = "resolutions"
	CollectionTickets     = "tickets"
	CollectionLog         = "log"
	CollectionSequences   = "sequences"
)

// Sequences holds the id counters that must survive restarts.
type Sequences struct {
	NextMemberID MemberID `cbor:"next_member_id"`
	NextTicketID TicketID `cbor:"next_ticket_id"`
	NextLogID    uint64   `cbor:"next_log_id"`
}

// Snapshot is the full persisted engine state. Vehicle crews are not part of
// it: they are rebuilt from member assignments on load.
type Snapshot struct {
	Vehicles    []Vehicle             `cbor:"vehicles"`
	Members     []CrewMember          `cbor:"members"`
	Pending     []RegistrationRequest `cbor:"pending"`
	Resolutions []Resolution          `cbor:"resolutions"`
	// Tickets are ordered oldest first.
	Tickets []Ticket `cbor:"tickets"`
	// Log is ordered newest first.
	Log       []LogEntry `cbor:"log"`
	Sequences Sequences  `cbor:"sequences"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	cloned := &Snapshot{
		Vehicles:    slices.Clone(s.Vehicles),
		Members:     make([]CrewMember, 0, len(s.Members)),
		Pending:     slices.Clone(s.Pending),
		Resolutions: slices.Clone(s.Resolutions),
		Tickets:     make([]Ticket, 0, len(s.Tickets)),
		Log:         slices.Clone(s.Log),
		Sequences:   s.Sequences,
	}

	for i := range s.Members {
		cloned.Members = append(cloned.Members, *s.Members[i].Clone())
	}

	for i := range s.Tickets {
		cloned.Tickets = append(cloned.Tickets, *s.Tickets[i].Clone())
	}

	return cloned
}
