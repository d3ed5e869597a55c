package engine

import (
	"time"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/service/directory"
)

// demoCrew is the roster of the demonstration station.
//
//nolint:gochecknoglobals // Read-only fixture.
var demoCrew = []struct {
	name    string
	rank    crew.Rank
	vehicle crew.VehicleID
}{
	{name: "Jean Dupont", rank: crew.RankChef, vehicle: 1},
	{name: "Marie Petit", rank: crew.RankCapitaine, vehicle: 1},
	{name: "Ali K.", rank: crew.RankSapeur, vehicle: 2},
}

// seedDemoCrew creates the demo members. Members whose vehicle is missing
// from the fleet stay unassigned.
func seedDemoCrew(dir *directory.Directory, at time.Time) int {
	for _, demo := range demoCrew {
		member := dir.CreateMember(demo.name, demo.rank, at)

		vehicleID := demo.vehicle
		_ = dir.Assign(member.ID, &vehicleID)
	}

	return len(demoCrew)
}
