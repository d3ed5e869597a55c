package crew

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oshokin/crew-alert/internal/auth"
	domain "github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/service/engine"
)

var chief = CallerFrom(domain.Supervisor("Chef")) //nolint:gochecknoglobals // Test fixture.

// startServer serves a fresh engine over an in-memory listener and returns a client.
func startServer(t *testing.T, opts ...engine.Option) *CrewServiceClient {
	t.Helper()

	fleet := []domain.Vehicle{{ID: 1, Name: "VL - 12A"}, {ID: 2, Name: "FPT - 34B"}}

	e, err := engine.New(context.Background(), nil, append([]engine.Option{engine.WithFleet(fleet)}, opts...)...)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			return handler(ctx, req)
		},
	))
	RegisterCrewServiceServer(srv, NewServer(e))

	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()

		srv.Stop()
		e.Close()
	})

	return NewCrewServiceClient(conn)
}

// TestServer_RegistrationFlow exercises unary calls end-to-end over the CBOR codec.
func TestServer_RegistrationFlow(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := startServer(t)

	submitted, err := client.SubmitRegistration(ctx, &SubmitRegistrationRequest{
		Caller:    CallerFrom(domain.Member(0)),
		FirstName: "Ana",
		LastName:  "Diaz",
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Diaz", submitted.Request.FullName())

	pending, err := client.ListPending(ctx, &ListPendingRequest{Caller: chief})
	require.NoError(t, err)
	require.Len(t, pending.Requests, 1)

	accepted, err := client.Accept(ctx, &AcceptRequest{
		Caller:    chief,
		RequestID: submitted.Request.ID,
		Rank:      domain.RankCaporal,
	})
	require.NoError(t, err)
	require.Equal(t, domain.RankCaporal, accepted.Member.Rank)

	vehicleID := domain.VehicleID(2)

	assigned, err := client.Assign(ctx, &AssignRequest{Caller: chief, MemberID: accepted.Member.ID, VehicleID: &vehicleID})
	require.NoError(t, err)
	require.True(t, assigned.Member.AssignedTo(2))

	vehicles, err := client.ListVehicles(ctx, &ListVehiclesRequest{Caller: chief})
	require.NoError(t, err)
	require.Len(t, vehicles.Vehicles, 2)
	require.Equal(t, "FPT - 34B", vehicles.Vehicles[1].Name)
	require.Equal(t, []domain.MemberID{accepted.Member.ID}, vehicles.Vehicles[1].Crew)

	crewOf, err := client.CrewOf(ctx, &CrewOfRequest{Caller: chief, VehicleID: 2})
	require.NoError(t, err)
	require.Equal(t, []domain.MemberID{accepted.Member.ID}, crewOf.MemberIDs)

	sent, err := client.Send(ctx, &SendRequest{Caller: chief, VehicleID: 1, Message: "Drill"})
	require.NoError(t, err)
	require.NotEmpty(t, sent.Warning)
	require.Empty(t, sent.Ticket.RecipientIDs)

	tickets, err := client.ListTickets(ctx, &ListTicketsRequest{Caller: chief})
	require.NoError(t, err)
	require.Len(t, tickets.Tickets, 1)

	logs, err := client.ListLog(ctx, &ListLogRequest{Caller: chief})
	require.NoError(t, err)
	require.Len(t, logs.Entries, 4)

	members, err := client.ListMembers(ctx, &ListMembersRequest{Caller: CallerFrom(domain.Member(accepted.Member.ID))})
	require.NoError(t, err)
	require.Len(t, members.Members, 1)
}

// TestServer_ErrorCodes verifies domain errors cross the wire with matching codes and sentinels.
func TestServer_ErrorCodes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	params := auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	supervisorHash, err := auth.HashCode("chef", params)
	require.NoError(t, err)

	crewMemberHash, err := auth.HashCode("equipier", params)
	require.NoError(t, err)

	authenticator, err := auth.New(supervisorHash, crewMemberHash)
	require.NoError(t, err)

	client := startServer(t, engine.WithAuthenticator(authenticator))

	login, err := client.Login(ctx, &LoginRequest{Code: " CHEF "})
	require.NoError(t, err)
	require.Equal(t, domain.RoleSupervisor, login.Role)

	_, err = client.Login(ctx, &LoginRequest{Code: "pompier"})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	require.ErrorIs(t, FromError(err), auth.ErrInvalidCode)

	_, err = client.Accept(ctx, &AcceptRequest{Caller: chief, RequestID: "bad"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.ErrorIs(t, FromError(err), domain.ErrInvalidInput)

	_, err = client.CrewOf(ctx, &CrewOfRequest{Caller: chief, VehicleID: 9})
	require.Equal(t, codes.NotFound, status.Code(err))
	require.ErrorIs(t, FromError(err), domain.ErrNotFound)

	_, err = client.ListLog(ctx, &ListLogRequest{Caller: CallerFrom(domain.Member(1))})
	require.Equal(t, codes.PermissionDenied, status.Code(err))
	require.ErrorIs(t, FromError(err), domain.ErrForbidden)

	submitted, err := client.SubmitRegistration(ctx, &SubmitRegistrationRequest{
		Caller:    CallerFrom(domain.Member(0)),
		FirstName: "Paul",
		LastName:  "Roux",
	})
	require.NoError(t, err)

	_, err = client.Reject(ctx, &RejectRequest{Caller: chief, RequestID: submitted.Request.ID})
	require.NoError(t, err)

	_, err = client.Reject(ctx, &RejectRequest{Caller: chief, RequestID: submitted.Request.ID})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	mapped := FromError(err)
	require.ErrorIs(t, mapped, domain.ErrAlreadyResolved)
	require.Equal(t, codes.FailedPrecondition, status.Code(mapped))
}

// TestServer_Watch verifies the stream confirms the subscription and then carries tickets.
func TestServer_Watch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := startServer(t)

	submitted, err := client.SubmitRegistration(ctx, &SubmitRegistrationRequest{
		Caller:    CallerFrom(domain.Member(0)),
		FirstName: "Ali",
		LastName:  "K.",
	})
	require.NoError(t, err)

	accepted, err := client.Accept(ctx, &AcceptRequest{Caller: chief, RequestID: submitted.Request.ID})
	require.NoError(t, err)

	vehicleID := domain.VehicleID(1)
	_, err = client.Assign(ctx, &AssignRequest{Caller: chief, MemberID: accepted.Member.ID, VehicleID: &vehicleID})
	require.NoError(t, err)

	stream, err := client.Watch(ctx, &WatchRequest{
		Caller:   CallerFrom(domain.Member(accepted.Member.ID)),
		MemberID: accepted.Member.ID,
	})
	require.NoError(t, err)

	event, err := stream.Recv()
	require.NoError(t, err)
	require.True(t, event.Subscribed)

	_, err = client.Send(ctx, &SendRequest{Caller: chief, VehicleID: 1, Message: "Feu de cave"})
	require.NoError(t, err)

	event, err = stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, event.Ticket)
	require.Equal(t, "Feu de cave", event.Ticket.Message)

	// Supervisors cannot watch.
	stream, err = client.Watch(ctx, &WatchRequest{Caller: chief, MemberID: accepted.Member.ID})
	require.NoError(t, err)

	_, err = stream.Recv()
	require.Equal(t, codes.PermissionDenied, status.Code(err))
}

// TestToStatus maps every domain sentinel.
func TestToStatus(t *testing.T) {
	t.Parallel()

	cases := map[error]codes.Code{
		fmt.Errorf("wrapped: %w", domain.ErrInvalidInput):    codes.InvalidArgument,
		fmt.Errorf("wrapped: %w", domain.ErrNotFound):        codes.NotFound,
		fmt.Errorf("wrapped: %w", domain.ErrAlreadyResolved): codes.FailedPrecondition,
		fmt.Errorf("wrapped: %w", domain.ErrForbidden):       codes.PermissionDenied,
		auth.ErrInvalidCode:                                  codes.Unauthenticated,
		context.DeadlineExceeded:                             codes.DeadlineExceeded,
		errors.New("disk on fire"):                           codes.Internal,
	}

	for err, want := range cases {
		require.Equal(t, want, status.Code(toStatus(err)), err.Error())
	}

	require.NoError(t, toStatus(nil))
	require.NoError(t, FromError(nil))

	plain := errors.New("plain")
	require.Same(t, plain, FromError(plain))

	unavailable := status.Error(codes.Unavailable, "down")
	require.Equal(t, unavailable, FromError(unavailable))
}

// TestServer_NilRequests ensures nil requests return InvalidArgument errors.
func TestServer_NilRequests(t *testing.T) {
	t.Parallel()

	s := NewServer(nil)

	_, err := s.Login(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.Send(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	require.Equal(t, codes.InvalidArgument, status.Code(s.Watch(nil, nil)))
}
