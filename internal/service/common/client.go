//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "github.com/oshokin/crew-alert/internal/api/grpc/crew"
	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// Client wraps the CrewService gRPC client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to crew-server.
	conn *grpc.ClientConn
	// api is the CrewService client.
	api *api.CrewServiceClient
	// health is the standard health-checking client.
	health healthpb.HealthClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// SendResult is the outcome of Send.
type SendResult struct {
	Ticket  crew.Ticket
	Warning string
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// ErrServerNotServing is returned by Health when crew-server reports it is not serving.
	ErrServerNotServing = errors.New("server is not serving")
)

// Dial establishes a gRPC connection to crew-server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial crew server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewCrewServiceClient(conn),
		health:      healthpb.NewHealthClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Health asks the standard health service whether CrewService is serving.
func (c *Client) Health(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.health.Check(callCtx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrServerNotServing, resp.GetStatus())
	}

	return nil
}

// Login exchanges an access code for a role.
func (c *Client) Login(ctx context.Context, code string) (crew.Role, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Login(callCtx, &api.LoginRequest{Code: code})
	if err != nil {
		return "", fmt.Errorf("login: %w", api.FromError(err))
	}

	return resp.Role, nil
}

// SubmitRegistration files a registration request.
func (c *Client) SubmitRegistration(
	ctx context.Context,
	who crew.Identity,
	firstName, lastName string,
) (*crew.RegistrationRequest, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SubmitRegistration(callCtx, &api.SubmitRegistrationRequest{
		Caller:    api.CallerFrom(who),
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, fmt.Errorf("submit registration: %w", api.FromError(err))
	}

	return &resp.Request, nil
}

// ListPending lists pending registrations.
func (c *Client) ListPending(ctx context.Context, who crew.Identity) ([]crew.RegistrationRequest, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListPending(callCtx, &api.ListPendingRequest{Caller: api.CallerFrom(who)})
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", api.FromError(err))
	}

	return resp.Requests, nil
}

// Accept accepts a registration.
func (c *Client) Accept(
	ctx context.Context,
	who crew.Identity,
	id crew.RequestID,
	rank crew.Rank,
) (*crew.CrewMember, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Accept(callCtx, &api.AcceptRequest{Caller: api.CallerFrom(who), RequestID: id, Rank: rank})
	if err != nil {
		return nil, fmt.Errorf("accept: %w", api.FromError(err))
	}

	return &resp.Member, nil
}

// Reject rejects a registration.
func (c *Client) Reject(ctx context.Context, who crew.Identity, id crew.RequestID) (*crew.RegistrationRequest, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Reject(callCtx, &api.RejectRequest{Caller: api.CallerFrom(who), RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("reject: %w", api.FromError(err))
	}

	return &resp.Request, nil
}

// Assign moves a member to a vehicle, or off any vehicle when vehicleID is nil.
func (c *Client) Assign(
	ctx context.Context,
	who crew.Identity,
	memberID crew.MemberID,
	vehicleID *crew.VehicleID,
) (*crew.CrewMember, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Assign(callCtx, &api.AssignRequest{
		Caller:    api.CallerFrom(who),
		MemberID:  memberID,
		VehicleID: vehicleID,
	})
	if err != nil {
		return nil, fmt.Errorf("assign: %w", api.FromError(err))
	}

	return &resp.Member, nil
}

// ListMembers lists the roster visible to the caller.
func (c *Client) ListMembers(ctx context.Context, who crew.Identity) ([]crew.CrewMember, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListMembers(callCtx, &api.ListMembersRequest{Caller: api.CallerFrom(who)})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", api.FromError(err))
	}

	return resp.Members, nil
}

// ListVehicles lists the fleet with current crews.
func (c *Client) ListVehicles(ctx context.Context, who crew.Identity) ([]crew.VehicleWithCrew, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListVehicles(callCtx, &api.ListVehiclesRequest{Caller: api.CallerFrom(who)})
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", api.FromError(err))
	}

	return resp.Vehicles, nil
}

// CrewOf returns the crew of a vehicle.
func (c *Client) CrewOf(ctx context.Context, who crew.Identity, vehicleID crew.VehicleID) ([]crew.MemberID, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CrewOf(callCtx, &api.CrewOfRequest{Caller: api.CallerFrom(who), VehicleID: vehicleID})
	if err != nil {
		return nil, fmt.Errorf("crew of vehicle %d: %w", vehicleID, api.FromError(err))
	}

	return resp.MemberIDs, nil
}

// Send sends a ticket to the crew of a vehicle.
func (c *Client) Send(ctx context.Context, who crew.Identity, vehicleID crew.VehicleID, message string) (*SendResult, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Send(callCtx, &api.SendRequest{
		Caller:    api.CallerFrom(who),
		VehicleID: vehicleID,
		Message:   message,
	})
	if err != nil {
		return nil, fmt.Errorf("send: %w", api.FromError(err))
	}

	return &SendResult{Ticket: resp.Ticket, Warning: resp.Warning}, nil
}

// ListTickets lists tickets visible to the caller, optionally for one vehicle.
func (c *Client) ListTickets(
	ctx context.Context,
	who crew.Identity,
	vehicleID *crew.VehicleID,
) ([]api.TicketReport, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListTickets(callCtx, &api.ListTicketsRequest{Caller: api.CallerFrom(who), VehicleID: vehicleID})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", api.FromError(err))
	}

	return resp.Tickets, nil
}

// ListLog returns the audit log.
func (c *Client) ListLog(ctx context.Context, who crew.Identity) ([]crew.LogEntry, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListLog(callCtx, &api.ListLogRequest{Caller: api.CallerFrom(who)})
	if err != nil {
		return nil, fmt.Errorf("list log: %w", api.FromError(err))
	}

	return resp.Entries, nil
}

// Watch opens a ticket stream and waits for the subscription to be confirmed.
// The stream ends when ctx is canceled. It has no call timeout.
func (c *Client) Watch(ctx context.Context, who crew.Identity, memberID crew.MemberID) (*Watcher, error) {
	stream, err := c.api.Watch(ctx, &api.WatchRequest{Caller: api.CallerFrom(who), MemberID: memberID})
	if err != nil {
		return nil, fmt.Errorf("watch: %w", api.FromError(err))
	}

	event, err := stream.Recv()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", api.FromError(err))
	}

	if !event.Subscribed {
		return nil, fmt.Errorf("watch: %w", errUnexpectedEvent)
	}

	return &Watcher{stream: stream}, nil
}

// errUnexpectedEvent is returned when the stream does not start with a confirmation.
var errUnexpectedEvent = errors.New("stream did not confirm the subscription")

// Watcher receives tickets from an open Watch stream.
type Watcher struct {
	stream grpc.ServerStreamingClient[api.WatchEvent]
}

// Next blocks until the next ticket arrives or the stream fails.
func (w *Watcher) Next() (*crew.Ticket, error) {
	for {
		event, err := w.stream.Recv()
		if err != nil {
			return nil, api.FromError(err)
		}

		if event.Ticket != nil {
			return event.Ticket, nil
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
