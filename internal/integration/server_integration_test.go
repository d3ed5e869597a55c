package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/crew-alert/internal/auth"
	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// TestCrewServer_RegistrationToAlert walks a member from application to a
// delivered ticket, then restarts the server on the same state file.
//
//nolint:funlen // One end-to-end scenario.
func TestCrewServer_RegistrationToAlert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	addr := reservePort(t)
	store := config.StoreConfig{Driver: config.StoreDriverFile, Path: filepath.Join(t.TempDir(), "state.crw")}
	cfgPath := writeSettings(t, addr, store, false)

	stop := startServer(t, cfgPath, addr)
	client := dial(t, addr)

	require.NoError(t, client.Health(ctx))

	role, err := client.Login(ctx, " CHEF ")
	require.NoError(t, err)
	require.Equal(t, crew.RoleSupervisor, role)

	_, err = client.Login(ctx, "pompier")
	require.ErrorIs(t, err, auth.ErrInvalidCode)

	applicant := crew.Identity{Role: crew.RoleCrewMember}
	supervisor := crew.Supervisor("Chef Martin")

	request, err := client.SubmitRegistration(ctx, applicant, "Jean", "Dupont")
	require.NoError(t, err)

	_, err = client.ListPending(ctx, applicant)
	require.ErrorIs(t, err, crew.ErrForbidden)

	pending, err := client.ListPending(ctx, supervisor)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	member, err := client.Accept(ctx, supervisor, request.ID, crew.RankCaporal)
	require.NoError(t, err)

	_, err = client.Accept(ctx, supervisor, request.ID, crew.RankCaporal)
	require.ErrorIs(t, err, crew.ErrAlreadyResolved)

	vehicleID := crew.VehicleID(1)
	_, err = client.Assign(ctx, supervisor, member.ID, &vehicleID)
	require.NoError(t, err)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	watcher, err := client.Watch(watchCtx, crew.Member(member.ID), member.ID)
	require.NoError(t, err)

	result, err := client.Send(ctx, supervisor, vehicleID, "Feu de cave, 12 rue des Lilas")
	require.NoError(t, err)
	require.Empty(t, result.Warning)
	require.Equal(t, []crew.MemberID{member.ID}, result.Ticket.RecipientIDs)
	require.Equal(t, "Chef Martin", result.Ticket.Sender)

	received, err := watcher.Next()
	require.NoError(t, err)
	require.Equal(t, result.Ticket.ID, received.ID)
	require.Equal(t, "VL - 12A", received.VehicleName)

	require.Eventually(t, func() bool {
		reports, listErr := client.ListTickets(ctx, supervisor, nil)
		if listErr != nil || len(reports) != 1 {
			return false
		}

		return reports[0].Delivery.Delivered == 1
	}, 5*time.Second, 20*time.Millisecond)

	entries, err := client.ListLog(ctx, supervisor)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	cancelWatch()
	stop()

	startServer(t, cfgPath, addr)
	client = dial(t, addr)

	members, err := client.ListMembers(ctx, supervisor)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.True(t, members[0].AssignedTo(vehicleID))

	restored, err := client.ListLog(ctx, supervisor)
	require.NoError(t, err)
	require.Len(t, restored, len(entries))

	second, err := client.Send(ctx, supervisor, vehicleID, "Retour caserne")
	require.NoError(t, err)
	require.Greater(t, second.Ticket.ID, result.Ticket.ID)
}

// TestCrewServer_SQLiteStoreWithDemoCrew seeds the demo crew into a SQLite
// store and reads it back after a restart.
func TestCrewServer_SQLiteStoreWithDemoCrew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	addr := reservePort(t)
	store := config.StoreConfig{Driver: config.StoreDriverSQLite, Path: filepath.Join(t.TempDir(), "crew.db")}
	cfgPath := writeSettings(t, addr, store, true)

	stop := startServer(t, cfgPath, addr)
	client := dial(t, addr)
	supervisor := crew.Supervisor("Chef")

	vehicles, err := client.ListVehicles(ctx, supervisor)
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	require.Len(t, vehicles[0].Crew, 2)
	require.Len(t, vehicles[1].Crew, 1)

	crewMember := crew.Member(vehicles[1].Crew[0])

	_, err = client.CrewOf(ctx, crewMember, vehicles[0].ID)
	require.ErrorIs(t, err, crew.ErrForbidden)

	result, err := client.Send(ctx, supervisor, vehicles[1].ID, "Accident VL, A6 sortie 12")
	require.NoError(t, err)

	stop()

	startServer(t, cfgPath, addr)
	client = dial(t, addr)

	reports, err := client.ListTickets(ctx, crewMember, nil)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, result.Ticket.ID, reports[0].Ticket.ID)

	members, err := client.ListMembers(ctx, supervisor)
	require.NoError(t, err)
	require.Len(t, members, 3)
}

// TestCrewServer_StopsWithOpenWatch stops the server while a crew member is
// still watching, then checks the last change survived the restart.
func TestCrewServer_StopsWithOpenWatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	addr := reservePort(t)
	store := config.StoreConfig{Driver: config.StoreDriverFile, Path: filepath.Join(t.TempDir(), "state.crw")}
	cfgPath := writeSettings(t, addr, store, true)

	stop := startServer(t, cfgPath, addr)
	client := dial(t, addr)
	supervisor := crew.Supervisor("Chef")

	vehicles, err := client.ListVehicles(ctx, supervisor)
	require.NoError(t, err)

	memberID := vehicles[1].Crew[0]

	watcher, err := client.Watch(ctx, crew.Member(memberID), memberID)
	require.NoError(t, err)

	_, err = client.Assign(ctx, supervisor, memberID, nil)
	require.NoError(t, err)

	stopped := make(chan struct{})

	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "server did not stop while a watch was open")
	}

	_, err = watcher.Next()
	require.Error(t, err)

	startServer(t, cfgPath, addr)
	client = dial(t, addr)

	members, err := client.ListMembers(ctx, supervisor)
	require.NoError(t, err)

	for _, member := range members {
		if member.ID == memberID {
			require.Nil(t, member.AssignedVehicleID)
		}
	}
}
