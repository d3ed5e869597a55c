package console

import (
	"context"
	"fmt"
	"io"

	api "github.com/oshokin/crew-alert/internal/api/grpc/crew"
	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/service/common"
)

// Options configures how the console reaches crew-server and who it acts as.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Role is the asserted caller role.
	Role string
	// MemberID is the caller's own member id, used by crew members.
	MemberID uint64
	// Name is the display name recorded in audit entries and as ticket sender.
	Name string
}

// Backend is the subset of the crew-server client used by the console.
type Backend interface {
	Health(ctx context.Context) error
	Login(ctx context.Context, code string) (crew.Role, error)
	SubmitRegistration(ctx context.Context, who crew.Identity, firstName, lastName string) (*crew.RegistrationRequest, error)
	ListPending(ctx context.Context, who crew.Identity) ([]crew.RegistrationRequest, error)
	Accept(ctx context.Context, who crew.Identity, id crew.RequestID, rank crew.Rank) (*crew.CrewMember, error)
	Reject(ctx context.Context, who crew.Identity, id crew.RequestID) (*crew.RegistrationRequest, error)
	Assign(ctx context.Context, who crew.Identity, memberID crew.MemberID, vehicleID *crew.VehicleID) (*crew.CrewMember, error)
	ListMembers(ctx context.Context, who crew.Identity) ([]crew.CrewMember, error)
	ListVehicles(ctx context.Context, who crew.Identity) ([]crew.VehicleWithCrew, error)
	CrewOf(ctx context.Context, who crew.Identity, vehicleID crew.VehicleID) ([]crew.MemberID, error)
	Send(ctx context.Context, who crew.Identity, vehicleID crew.VehicleID, message string) (*common.SendResult, error)
	ListTickets(ctx context.Context, who crew.Identity, vehicleID *crew.VehicleID) ([]api.TicketReport, error)
	ListLog(ctx context.Context, who crew.Identity) ([]crew.LogEntry, error)
}

// Console runs commands against a backend on behalf of one identity.
type Console struct {
	backend Backend
	who     crew.Identity
	out     io.Writer
}

// New returns a console writing its results to out.
func New(backend Backend, who crew.Identity, out io.Writer) *Console {
	return &Console{backend: backend, who: who, out: out}
}

// Open loads settings, resolves the identity and dials crew-server. The
// returned function closes the connection.
func Open(ctx context.Context, opts *Options, out io.Writer) (*Console, func() error, error) {
	ctx = logger.WithName(ctx, "crew-console")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, nil, fmt.Errorf("configure logging: %w", err)
	}

	who, err := ResolveIdentity(opts)
	if err != nil {
		return nil, nil, err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("dial server: %w", err)
	}

	logger.DebugKV(ctx, "Connected", "server_address", serverAddress, "identity", who.String())

	return New(client, who, out), client.Close, nil
}

// ResolveIdentity builds the caller identity from flags. Supervisors without
// a name act as "username@hostname".
func ResolveIdentity(opts *Options) (crew.Identity, error) {
	role, err := crew.ParseRole(opts.Role)
	if err != nil {
		return crew.Identity{}, err
	}

	who := crew.Identity{
		Role:     role,
		MemberID: crew.MemberID(opts.MemberID),
		Name:     opts.Name,
	}

	if who.IsSupervisor() && who.Name == "" {
		operator, detectErr := common.DetectOperator()
		if detectErr != nil {
			return crew.Identity{}, fmt.Errorf("detect operator: %w", detectErr)
		}

		who.Name = operator
	}

	return who, nil
}
