package crew

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
	"github.com/oshokin/crew-alert/internal/service/engine"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Login(ctx context.Context, code string) (domain.Role, error)
	SubmitRegistration(ctx context.Context, who domain.Identity, firstName, lastName string) (*domain.RegistrationRequest, error)
	ListPending(ctx context.Context, who domain.Identity) ([]domain.RegistrationRequest, error)
	Accept(ctx context.Context, who domain.Identity, id domain.RequestID, rank domain.Rank) (*domain.CrewMember, error)
	Reject(ctx context.Context, who domain.Identity, id domain.RequestID) (*domain.RegistrationRequest, error)
	Assign(ctx context.Context, who domain.Identity, memberID domain.MemberID, vehicleID *domain.VehicleID) (*domain.CrewMember, error)
	ListMembers(ctx context.Context, who domain.Identity) ([]domain.CrewMember, error)
	ListVehicles(ctx context.Context, who domain.Identity) ([]domain.VehicleWithCrew, error)
	CrewOf(ctx context.Context, who domain.Identity, vehicleID domain.VehicleID) ([]domain.MemberID, error)
	Send(ctx context.Context, who domain.Identity, vehicleID domain.VehicleID, message string) (*engine.SendResult, error)
	ListTickets(ctx context.Context, who domain.Identity, vehicleID *domain.VehicleID) ([]domain.TicketReport, error)
	ListLog(ctx context.Context, who domain.Identity) ([]domain.LogEntry, error)
	Watch(ctx context.Context, who domain.Identity, memberID domain.MemberID) (<-chan *domain.Ticket, func(), error)
}

// Server implements the CrewService gRPC API.
type Server struct {
	// service provides the business logic.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

var errRequestRequired = status.Error(codes.InvalidArgument, "request is required")

// Login exchanges an access code for a role.
func (s *Server) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	role, err := s.service.Login(ctx, req.Code)
	if err != nil {
		return nil, toStatus(err)
	}

	return &LoginResponse{Role: role}, nil
}

// SubmitRegistration files a registration request.
func (s *Server) SubmitRegistration(
	ctx context.Context,
	req *SubmitRegistrationRequest,
) (*SubmitRegistrationResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	request, err := s.service.SubmitRegistration(ctx, req.Caller.Identity(), req.FirstName, req.LastName)
	if err != nil {
		return nil, toStatus(err)
	}

	return &SubmitRegistrationResponse{Request: *request}, nil
}

// ListPending lists pending registrations.
func (s *Server) ListPending(ctx context.Context, req *ListPendingRequest) (*ListPendingResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	requests, err := s.service.ListPending(ctx, req.Caller.Identity())
	if err != nil {
		return nil, toStatus(err)
	}

	return &ListPendingResponse{Requests: requests}, nil
}

// Accept accepts a registration.
func (s *Server) Accept(ctx context.Context, req *AcceptRequest) (*AcceptResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	member, err := s.service.Accept(ctx, req.Caller.Identity(), req.RequestID, req.Rank)
	if err != nil {
		return nil, toStatus(err)
	}

	return &AcceptResponse{Member: *member}, nil
}

// Reject rejects a registration.
func (s *Server) Reject(ctx context.Context, req *RejectRequest) (*RejectResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	request, err := s.service.Reject(ctx, req.Caller.Identity(), req.RequestID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &RejectResponse{Request: *request}, nil
}

// Assign moves a member to a vehicle or off any vehicle.
func (s *Server) Assign(ctx context.Context, req *AssignRequest) (*AssignResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	member, err := s.service.Assign(ctx, req.Caller.Identity(), req.MemberID, req.VehicleID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &AssignResponse{Member: *member}, nil
}

// ListMembers lists the roster visible to the caller.
func (s *Server) ListMembers(ctx context.Context, req *ListMembersRequest) (*ListMembersResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	members, err := s.service.ListMembers(ctx, req.Caller.Identity())
	if err != nil {
		return nil, toStatus(err)
	}

	return &ListMembersResponse{Members: members}, nil
}

// ListVehicles lists the fleet with current crews.
func (s *Server) ListVehicles(ctx context.Context, req *ListVehiclesRequest) (*ListVehiclesResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	vehicles, err := s.service.ListVehicles(ctx, req.Caller.Identity())
	if err != nil {
		return nil, toStatus(err)
	}

	return &ListVehiclesResponse{Vehicles: vehicles}, nil
}

// CrewOf returns the crew of a vehicle.
func (s *Server) CrewOf(ctx context.Context, req *CrewOfRequest) (*CrewOfResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	ids, err := s.service.CrewOf(ctx, req.Caller.Identity(), req.VehicleID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &CrewOfResponse{MemberIDs: ids}, nil
}

// Send sends a ticket.
func (s *Server) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	result, err := s.service.Send(ctx, req.Caller.Identity(), req.VehicleID, req.Message)
	if err != nil {
		return nil, toStatus(err)
	}

	return &SendResponse{Ticket: *result.Ticket, Warning: result.Warning}, nil
}

// ListTickets lists tickets visible to the caller.
func (s *Server) ListTickets(ctx context.Context, req *ListTicketsRequest) (*ListTicketsResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	reports, err := s.service.ListTickets(ctx, req.Caller.Identity(), req.VehicleID)
	if err != nil {
		return nil, toStatus(err)
	}

	response := &ListTicketsResponse{Tickets: make([]TicketReport, 0, len(reports))}
	for _, r := range reports {
		response.Tickets = append(response.Tickets, TicketReport{Ticket: *r.Ticket, Delivery: r.Delivery})
	}

	return response, nil
}

// ListLog returns the audit log.
func (s *Server) ListLog(ctx context.Context, req *ListLogRequest) (*ListLogResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	entries, err := s.service.ListLog(ctx, req.Caller.Identity())
	if err != nil {
		return nil, toStatus(err)
	}

	return &ListLogResponse{Entries: entries}, nil
}

// Watch streams tickets addressed to the caller until the client disconnects.
func (s *Server) Watch(req *WatchRequest, stream grpc.ServerStreamingServer[WatchEvent]) error {
	if req == nil {
		return errRequestRequired
	}

	ctx := logger.WithKV(stream.Context(), "member_id", req.MemberID)

	tickets, cancel, err := s.service.Watch(ctx, req.Caller.Identity(), req.MemberID)
	if err != nil {
		return toStatus(err)
	}

	defer cancel()

	if err = stream.Send(&WatchEvent{Subscribed: true}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Watcher disconnected")

			return nil
		case ticket, ok := <-tickets:
			if !ok {
				return nil
			}

			if err = stream.Send(&WatchEvent{Ticket: ticket}); err != nil {
				return err
			}
		}
	}
}
