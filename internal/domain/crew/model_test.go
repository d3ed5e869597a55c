package crew

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRankOrderingAndParsing verifies seniority order, names and parsing errors.
func TestRankOrderingAndParsing(t *testing.T) {
	t.Parallel()

	ranks := Ranks()
	for i := 1; i < len(ranks); i++ {
		require.Less(t, ranks[i-1], ranks[i])
	}

	require.Equal(t, RankSapeur, LowestRank)
	require.False(t, RankCaporal.Senior())
	require.True(t, RankCapitaine.Senior())

	for _, r := range ranks {
		parsed, err := ParseRank(r.String())
		require.NoError(t, err)
		require.Equal(t, r, parsed)
	}

	parsed, err := ParseRank("  chef ")
	require.NoError(t, err)
	require.Equal(t, RankChef, parsed)

	_, err = ParseRank("general")
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Equal(t, "Rank(9)", Rank(9).String())

	_, err = Rank(9).MarshalText()
	require.ErrorIs(t, err, ErrInvalidInput)
}

// TestRankText verifies the text encoding used by codecs and YAML.
func TestRankText(t *testing.T) {
	t.Parallel()

	text, err := RankCapitaine.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "Capitaine", string(text))

	var r Rank
	require.NoError(t, r.UnmarshalText([]byte("caporal")))
	require.Equal(t, RankCaporal, r)
	require.Error(t, r.UnmarshalText([]byte("")))
}

// TestParseRole checks known roles and rejection of unknown ones.
func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole("Supervisor")
	require.NoError(t, err)
	require.Equal(t, RoleSupervisor, role)

	role, err = ParseRole("crew-member")
	require.NoError(t, err)
	require.Equal(t, RoleCrewMember, role)

	_, err = ParseRole("admin")
	require.True(t, errors.Is(err, ErrInvalidInput))

	require.NoError(t, Supervisor("Chef").Validate())
	require.NoError(t, Member(3).Validate())
	require.ErrorIs(t, Identity{}.Validate(), ErrInvalidInput)
	require.Equal(t, "member #3 (crew-member)", Member(3).String())
	require.Equal(t, "Chef (supervisor)", Supervisor("Chef").String())
}

// TestCrewMemberClone verifies the vehicle pointer is not shared between copies.
func TestCrewMemberClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*CrewMember)(nil).Clone())

	vehicleID := VehicleID(1)
	m := &CrewMember{
		ID:                1,
		FullName:          "Ana Diaz",
		Rank:              RankSapeur,
		AssignedVehicleID: &vehicleID,
		RegisteredAt:      time.Now(),
	}

	c := m.Clone()
	require.Equal(t, m, c)
	require.NotSame(t, m.AssignedVehicleID, c.AssignedVehicleID)
	require.True(t, c.AssignedTo(1))
	require.False(t, c.AssignedTo(2))
}

// TestTicketClone verifies the recipient snapshot is copied.
func TestTicketClone(t *testing.T) {
	t.Parallel()

	ticket := &Ticket{ID: 1, VehicleID: 1, Message: "Structure fire", RecipientIDs: []MemberID{1, 2}}
	c := ticket.Clone()
	c.RecipientIDs[0] = 9

	require.Equal(t, MemberID(1), ticket.RecipientIDs[0])
	require.True(t, ticket.HasRecipient(2))
	require.False(t, ticket.HasRecipient(9))
}

// TestDeliveryStatsPending verifies the pending count never goes negative.
func TestDeliveryStatsPending(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, DeliveryStats{Delivered: 1}.Pending(2))
	require.Equal(t, 0, DeliveryStats{Delivered: 2, Failed: 1}.Pending(2))
}

// TestSnapshotClone verifies nested slices are not shared.
func TestSnapshotClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Snapshot)(nil).Clone())

	vehicleID := VehicleID(2)
	s := &Snapshot{
		Vehicles: []Vehicle{{ID: 2, Name: "FPT - 34B"}},
		Members:  []CrewMember{{ID: 1, FullName: "Ali K.", AssignedVehicleID: &vehicleID}},
		Tickets:  []Ticket{{ID: 1, VehicleID: 2, RecipientIDs: []MemberID{1}}},
		Log:      []LogEntry{{ID: 1, Text: "boot"}},
	}

	c := s.Clone()
	require.Equal(t, s, c)

	*c.Members[0].AssignedVehicleID = 1
	c.Tickets[0].RecipientIDs[0] = 5

	require.Equal(t, VehicleID(2), *s.Members[0].AssignedVehicleID)
	require.Equal(t, MemberID(1), s.Tickets[0].RecipientIDs[0])
}
