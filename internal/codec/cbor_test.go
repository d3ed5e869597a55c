package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// TestMarshal_Deterministic verifies equal values encode to equal bytes.
func TestMarshal_Deterministic(t *testing.T) {
	t.Parallel()

	value := map[string]int{"b": 2, "a": 1, "c": 3}

	first, err := Marshal(value)
	require.NoError(t, err)

	for range 10 {
		again, err := Marshal(value)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

// TestRoundtrip_DomainTypes verifies ranks travel as names and timestamps keep precision.
func TestRoundtrip_DomainTypes(t *testing.T) {
	t.Parallel()

	vehicleID := crew.VehicleID(2)
	member := crew.CrewMember{
		ID:                3,
		FullName:          "Ali K.",
		Rank:              crew.RankCapitaine,
		AssignedVehicleID: &vehicleID,
		RegisteredAt:      time.Date(2026, 10, 17, 9, 30, 1, 123456789, time.UTC),
	}

	data, err := Marshal(member)
	require.NoError(t, err)
	require.Contains(t, string(data), "Capitaine")

	var decoded crew.CrewMember
	require.NoError(t, Unmarshal(data, &decoded))
	require.Equal(t, member.ID, decoded.ID)
	require.Equal(t, member.Rank, decoded.Rank)
	require.Equal(t, *member.AssignedVehicleID, *decoded.AssignedVehicleID)
	require.True(t, member.RegisteredAt.Equal(decoded.RegisteredAt))
}

// TestGRPCCodec_Registered verifies the codec is available to gRPC and handles protobuf messages.
func TestGRPCCodec_Registered(t *testing.T) {
	t.Parallel()

	registered := encoding.GetCodec(Name)
	require.NotNil(t, registered)
	require.Equal(t, Name, registered.Name())

	c := GRPCCodec{}

	data, err := c.Marshal(&healthpb.HealthCheckRequest{Service: "crew.v1.CrewService"})
	require.NoError(t, err)

	var request healthpb.HealthCheckRequest
	require.NoError(t, c.Unmarshal(data, &request))
	require.Equal(t, "crew.v1.CrewService", request.GetService())

	data, err = c.Marshal(crew.Vehicle{ID: 1, Name: "VL - 12A"})
	require.NoError(t, err)

	var vehicle crew.Vehicle
	require.NoError(t, c.Unmarshal(data, &vehicle))
	require.Equal(t, "VL - 12A", vehicle.Name)

	require.Error(t, c.Unmarshal([]byte{0xff}, &vehicle))
}
