package directory

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// Directory owns vehicles and crew members.
type Directory struct {
	// vehicles is the fixed fleet keyed by id.
	vehicles map[crew.VehicleID]crew.Vehicle
	// vehicleOrder keeps the fleet in provisioning order.
	vehicleOrder []crew.VehicleID
	// members is the crew table keyed by id.
	members map[crew.MemberID]*crew.CrewMember
	// crews maps a vehicle to the set of members assigned to it.
	crews map[crew.VehicleID]map[crew.MemberID]struct{}
	// nextMemberID is the id handed to the next created member.
	nextMemberID crew.MemberID
}

// New creates a directory for the given fleet. Duplicate vehicle ids keep the first entry.
func New(fleet []crew.Vehicle) *Directory {
	d := &Directory{
		vehicles:     make(map[crew.VehicleID]crew.Vehicle, len(fleet)),
		vehicleOrder: make([]crew.VehicleID, 0, len(fleet)),
		members:      make(map[crew.MemberID]*crew.CrewMember),
		crews:        make(map[crew.VehicleID]map[crew.MemberID]struct{}, len(fleet)),
		nextMemberID: 1,
	}

	for _, v := range fleet {
		if _, exists := d.vehicles[v.ID]; exists {
			continue
		}

		d.vehicles[v.ID] = v
		d.vehicleOrder = append(d.vehicleOrder, v.ID)
	}

	return d
}

// Restore loads members saved earlier and rebuilds the crew index. Members
// assigned to a vehicle that is no longer part of the fleet are unassigned;
// their ids are returned so the caller can report them.
func (d *Directory) Restore(members []crew.CrewMember, next crew.MemberID) []crew.MemberID {
	d.members = make(map[crew.MemberID]*crew.CrewMember, len(members))
	d.crews = make(map[crew.VehicleID]map[crew.MemberID]struct{}, len(d.vehicles))
	d.nextMemberID = max(next, 1)

	var orphaned []crew.MemberID

	for i := range members {
		member := members[i].Clone()

		if member.AssignedVehicleID != nil {
			if _, ok := d.vehicles[*member.AssignedVehicleID]; !ok {
				member.AssignedVehicleID = nil

				orphaned = append(orphaned, member.ID)
			}
		}

		d.members[member.ID] = member
		d.index(member.ID, nil, member.AssignedVehicleID)

		if member.ID >= d.nextMemberID {
			d.nextMemberID = member.ID + 1
		}
	}

	return orphaned
}

// CreateMember adds a new unassigned member and returns a copy of it.
// It is the only way members come into existence.
func (d *Directory) CreateMember(fullName string, rank crew.Rank, registeredAt time.Time) *crew.CrewMember {
	member := &crew.CrewMember{
		ID:           d.nextMemberID,
		FullName:     fullName,
		Rank:         rank,
		RegisteredAt: registeredAt,
	}

	d.members[member.ID] = member
	d.nextMemberID++

	return member.Clone()
}

// Assign sets the vehicle of a member. A nil vehicle unassigns the member.
// Assigning the vehicle the member already has is a no-op.
func (d *Directory) Assign(memberID crew.MemberID, vehicleID *crew.VehicleID) error {
	member, ok := d.members[memberID]
	if !ok {
		return fmt.Errorf("%w: member %d", crew.ErrNotFound, memberID)
	}

	if vehicleID != nil {
		if _, ok := d.vehicles[*vehicleID]; !ok {
			return fmt.Errorf("%w: vehicle %d", crew.ErrNotFound, *vehicleID)
		}
	}

	previous := member.AssignedVehicleID

	if vehicleID == nil {
		member.AssignedVehicleID = nil
	} else {
		assigned := *vehicleID
		member.AssignedVehicleID = &assigned
	}

	d.index(memberID, previous, member.AssignedVehicleID)

	return nil
}

// index moves a member between crew sets.
func (d *Directory) index(memberID crew.MemberID, from, to *crew.VehicleID) {
	if from != nil {
		if set, ok := d.crews[*from]; ok {
			delete(set, memberID)

			if len(set) == 0 {
				delete(d.crews, *from)
			}
		}
	}

	if to == nil {
		return
	}

	set, ok := d.crews[*to]
	if !ok {
		set = make(map[crew.MemberID]struct{})
		d.crews[*to] = set
	}

	set[memberID] = struct{}{}
}

// CrewOf returns the ids of members assigned to the vehicle, in ascending order.
func (d *Directory) CrewOf(vehicleID crew.VehicleID) ([]crew.MemberID, error) {
	if _, ok := d.vehicles[vehicleID]; !ok {
		return nil, fmt.Errorf("%w: vehicle %d", crew.ErrNotFound, vehicleID)
	}

	return slices.Sorted(maps.Keys(d.crews[vehicleID])), nil
}

// Member returns a copy of the member with the given id.
func (d *Directory) Member(id crew.MemberID) (*crew.CrewMember, error) {
	member, ok := d.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: member %d", crew.ErrNotFound, id)
	}

	return member.Clone(), nil
}

// Vehicle returns the vehicle with the given id.
func (d *Directory) Vehicle(id crew.VehicleID) (crew.Vehicle, error) {
	vehicle, ok := d.vehicles[id]
	if !ok {
		return crew.Vehicle{}, fmt.Errorf("%w: vehicle %d", crew.ErrNotFound, id)
	}

	return vehicle, nil
}

// Members returns copies of all members ordered by id.
func (d *Directory) Members() []crew.CrewMember {
	result := make([]crew.CrewMember, 0, len(d.members))
	for _, id := range slices.Sorted(maps.Keys(d.members)) {
		result = append(result, *d.members[id].Clone())
	}

	return result
}

// Vehicles returns the fleet in provisioning order with each crew computed from the index.
func (d *Directory) Vehicles() []crew.VehicleWithCrew {
	result := make([]crew.VehicleWithCrew, 0, len(d.vehicleOrder))
	for _, id := range d.vehicleOrder {
		result = append(result, crew.VehicleWithCrew{
			Vehicle: d.vehicles[id],
			Crew:    slices.Sorted(maps.Keys(d.crews[id])),
		})
	}

	return result
}

// Fleet returns the vehicles without crews, in provisioning order.
func (d *Directory) Fleet() []crew.Vehicle {
	result := make([]crew.Vehicle, 0, len(d.vehicleOrder))
	for _, id := range d.vehicleOrder {
		result = append(result, d.vehicles[id])
	}

	return result
}

// NextMemberID returns the id the next created member will get.
func (d *Directory) NextMemberID() crew.MemberID {
	return d.nextMemberID
}

// VehicleLabel renders a vehicle reference for log lines. A nil id reads "none".
func (d *Directory) VehicleLabel(vehicleID *crew.VehicleID) string {
	if vehicleID == nil {
		return "none"
	}

	if vehicle, ok := d.vehicles[*vehicleID]; ok && strings.TrimSpace(vehicle.Name) != "" {
		return vehicle.Name
	}

	return fmt.Sprintf("vehicle #%d", *vehicleID)
}
