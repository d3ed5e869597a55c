package engine

import (
	"context"
	"fmt"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
)

// Assign moves a member to a vehicle, or off any vehicle when vehicleID is nil.
func (e *Engine) Assign(
	ctx context.Context,
	who crew.Identity,
	memberID crew.MemberID,
	vehicleID *crew.VehicleID,
) (*crew.CrewMember, error) {
	if err := requireSupervisor(who, "assign members"); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.directory.Assign(memberID, vehicleID); err != nil {
		return nil, err
	}

	member, err := e.directory.Member(memberID)
	if err != nil {
		return nil, err
	}

	label := e.directory.VehicleLabel(vehicleID)

	e.commit(ctx, fmt.Sprintf("Member #%d %s assigned to %s by %s", member.ID, member.FullName, label, actorName(who)))
	logger.InfoKV(ctx, "Member assigned", "member_id", member.ID, "vehicle", label)

	return member, nil
}

// ListMembers returns the roster sorted by id. A crew member only sees their
// own record.
func (e *Engine) ListMembers(_ context.Context, who crew.Identity) ([]crew.CrewMember, error) {
	if err := who.Validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if who.IsSupervisor() {
		return e.directory.Members(), nil
	}

	member, err := e.directory.Member(who.MemberID)
	if err != nil {
		return []crew.CrewMember{}, nil
	}

	return []crew.CrewMember{*member}, nil
}

// ListVehicles returns the fleet with the current crew of each vehicle. Crew
// members see the crew of their own vehicle only; other crews are left empty.
func (e *Engine) ListVehicles(_ context.Context, who crew.Identity) ([]crew.VehicleWithCrew, error) {
	if err := who.Validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	vehicles := e.directory.Vehicles()
	if who.IsSupervisor() {
		return vehicles, nil
	}

	own := e.ownVehicle(who)

	for i := range vehicles {
		if own == nil || vehicles[i].ID != *own {
			vehicles[i].Crew = []crew.MemberID{}
		}
	}

	return vehicles, nil
}

// CrewOf returns the sorted ids of members assigned to the vehicle. A crew
// member may only look at their own vehicle.
func (e *Engine) CrewOf(_ context.Context, who crew.Identity, vehicleID crew.VehicleID) ([]crew.MemberID, error) {
	if err := who.Validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !who.IsSupervisor() {
		if err := e.requireOwnVehicle(who, vehicleID); err != nil {
			return nil, err
		}
	}

	return e.directory.CrewOf(vehicleID)
}

// ownVehicle returns the caller's current vehicle, or nil. The caller holds mu.
func (e *Engine) ownVehicle(who crew.Identity) *crew.VehicleID {
	member, err := e.directory.Member(who.MemberID)
	if err != nil {
		return nil
	}

	return member.AssignedVehicleID
}

// requireOwnVehicle fails unless the crew member is assigned to vehicleID.
// The caller holds mu.
func (e *Engine) requireOwnVehicle(who crew.Identity, vehicleID crew.VehicleID) error {
	own := e.ownVehicle(who)
	if own == nil || *own != vehicleID {
		return fmt.Errorf("%w: %s is not assigned to vehicle %d", crew.ErrForbidden, who, vehicleID)
	}

	return nil
}
