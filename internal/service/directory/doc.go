// Package directory holds the vehicle catalog and the crew member table.
//
// Vehicle crews are never stored on the vehicle: Directory keeps an index
// from vehicle id to member ids that is updated by every assignment, so
// CrewOf always reflects the current AssignedVehicleID values.
//
// A Directory is not safe for concurrent use; the engine serializes access.
package directory
