package crew

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oshokin/crew-alert/internal/codec"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "crew.v1.CrewService"

// Method names of CrewService.
const (
	MethodLogin              = "Login"
	MethodSubmitRegistration = "SubmitRegistration"
	MethodListPending        = "ListPending"
	MethodAccept             = "Accept"
	MethodReject             = "Reject"
	MethodAssign             = "Assign"
	MethodListMembers        = "ListMembers"
	MethodListVehicles       = "ListVehicles"
	MethodCrewOf             = "CrewOf"
	MethodSend               = "Send"
	MethodListTickets        = "ListTickets"
	MethodListLog            = "ListLog"
	MethodWatch              = "Watch"
)

// FullMethod returns "/crew.v1.CrewService/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CrewServiceServer is the server API of CrewService.
type CrewServiceServer interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	SubmitRegistration(ctx context.Context, req *SubmitRegistrationRequest) (*SubmitRegistrationResponse, error)
	ListPending(ctx context.Context, req *ListPendingRequest) (*ListPendingResponse, error)
	Accept(ctx context.Context, req *AcceptRequest) (*AcceptResponse, error)
	Reject(ctx context.Context, req *RejectRequest) (*RejectResponse, error)
	Assign(ctx context.Context, req *AssignRequest) (*AssignResponse, error)
	ListMembers(ctx context.Context, req *ListMembersRequest) (*ListMembersResponse, error)
	ListVehicles(ctx context.Context, req *ListVehiclesRequest) (*ListVehiclesResponse, error)
	CrewOf(ctx context.Context, req *CrewOfRequest) (*CrewOfResponse, error)
	Send(ctx context.Context, req *SendRequest) (*SendResponse, error)
	ListTickets(ctx context.Context, req *ListTicketsRequest) (*ListTicketsResponse, error)
	ListLog(ctx context.Context, req *ListLogRequest) (*ListLogResponse, error)
	Watch(req *WatchRequest, stream grpc.ServerStreamingServer[WatchEvent]) error
}

// unary builds the descriptor of a unary method.
func unary[Req, Resp any](
	method string,
	call func(CrewServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(CrewServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}

			handler := func(ctx context.Context, req any) (any, error) {
				typed, _ := req.(*Req)

				return call(server, ctx, typed)
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

// watchHandler serves the Watch stream.
func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	server, _ := srv.(CrewServiceServer)

	return server.Watch(in, &grpc.GenericServerStream[WatchRequest, WatchEvent]{ServerStream: stream})
}

// ServiceDesc describes CrewService for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Descriptors are package-level by gRPC convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CrewServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodLogin, CrewServiceServer.Login),
		unary(MethodSubmitRegistration, CrewServiceServer.SubmitRegistration),
		unary(MethodListPending, CrewServiceServer.ListPending),
		unary(MethodAccept, CrewServiceServer.Accept),
		unary(MethodReject, CrewServiceServer.Reject),
		unary(MethodAssign, CrewServiceServer.Assign),
		unary(MethodListMembers, CrewServiceServer.ListMembers),
		unary(MethodListVehicles, CrewServiceServer.ListVehicles),
		unary(MethodCrewOf, CrewServiceServer.CrewOf),
		unary(MethodSend, CrewServiceServer.Send),
		unary(MethodListTickets, CrewServiceServer.ListTickets),
		unary(MethodListLog, CrewServiceServer.ListLog),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatch,
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "crew/v1/crew.cbor",
}

// RegisterCrewServiceServer registers srv on s.
func RegisterCrewServiceServer(s grpc.ServiceRegistrar, srv CrewServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// CrewServiceClient is the client API of CrewService. Every call uses the
// CBOR codec.
type CrewServiceClient struct {
	cc   grpc.ClientConnInterface
	opts []grpc.CallOption
}

// NewCrewServiceClient wraps a connection.
func NewCrewServiceClient(cc grpc.ClientConnInterface) *CrewServiceClient {
	return &CrewServiceClient{
		cc:   cc,
		opts: []grpc.CallOption{grpc.CallContentSubtype(codec.Name)},
	}
}

// invoke performs a unary call.
func invoke[Resp any](
	ctx context.Context,
	c *CrewServiceClient,
	method string,
	in any,
	opts []grpc.CallOption,
) (*Resp, error) {
	out := new(Resp)

	callOpts := append(append([]grpc.CallOption{}, c.opts...), opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, callOpts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Login calls CrewService.Login.
func (c *CrewServiceClient) Login(
	ctx context.Context,
	in *LoginRequest,
	opts ...grpc.CallOption,
) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c, MethodLogin, in, opts)
}

// SubmitRegistration calls CrewService.SubmitRegistration.
func (c *CrewServiceClient) SubmitRegistration(
	ctx context.Context,
	in *SubmitRegistrationRequest,
	opts ...grpc.CallOption,
) (*SubmitRegistrationResponse, error) {
	return invoke[SubmitRegistrationResponse](ctx, c, MethodSubmitRegistration, in, opts)
}

// ListPending calls CrewService.ListPending.
func (c *CrewServiceClient) ListPending(
	ctx context.Context,
	in *ListPendingRequest,
	opts ...grpc.CallOption,
) (*ListPendingResponse, error) {
	return invoke[ListPendingResponse](ctx, c, MethodListPending, in, opts)
}

// Accept calls CrewService.Accept.
func (c *CrewServiceClient) Accept(
	ctx context.Context,
	in *AcceptRequest,
	opts ...grpc.CallOption,
) (*AcceptResponse, error) {
	return invoke[AcceptResponse](ctx, c, MethodAccept, in, opts)
}

// Reject calls CrewService.Reject.
func (c *CrewServiceClient) Reject(
	ctx context.Context,
	in *RejectRequest,
	opts ...grpc.CallOption,
) (*RejectResponse, error) {
	return invoke[RejectResponse](ctx, c, MethodReject, in, opts)
}

// Assign calls CrewService.Assign.
func (c *CrewServiceClient) Assign(
	ctx context.Context,
	in *AssignRequest,
	opts ...grpc.CallOption,
) (*AssignResponse, error) {
	return invoke[AssignResponse](ctx, c, MethodAssign, in, opts)
}

// ListMembers calls CrewService.ListMembers.
func (c *CrewServiceClient) ListMembers(
	ctx context.Context,
	in *ListMembersRequest,
	opts ...grpc.CallOption,
) (*ListMembersResponse, error) {
	return invoke[ListMembersResponse](ctx, c, MethodListMembers, in, opts)
}

// ListVehicles calls CrewService.ListVehicles.
func (c *CrewServiceClient) ListVehicles(
	ctx context.Context,
	in *ListVehiclesRequest,
	opts ...grpc.CallOption,
) (*ListVehiclesResponse, error) {
	return invoke[ListVehiclesResponse](ctx, c, MethodListVehicles, in, opts)
}

// CrewOf calls CrewService.CrewOf.
func (c *CrewServiceClient) CrewOf(
	ctx context.Context,
	in *CrewOfRequest,
	opts ...grpc.CallOption,
) (*CrewOfResponse, error) {
	return invoke[CrewOfResponse](ctx, c, MethodCrewOf, in, opts)
}

// Send calls CrewService.Send.
func (c *CrewServiceClient) Send(
	ctx context.Context,
	in *SendRequest,
	opts ...grpc.CallOption,
) (*SendResponse, error) {
	return invoke[SendResponse](ctx, c, MethodSend, in, opts)
}

// ListTickets calls CrewService.ListTickets.
func (c *CrewServiceClient) ListTickets(
	ctx context.Context,
	in *ListTicketsRequest,
	opts ...grpc.CallOption,
) (*ListTicketsResponse, error) {
	return invoke[ListTicketsResponse](ctx, c, MethodListTickets, in, opts)
}

// ListLog calls CrewService.ListLog.
func (c *CrewServiceClient) ListLog(
	ctx context.Context,
	in *ListLogRequest,
	opts ...grpc.CallOption,
) (*ListLogResponse, error) {
	return invoke[ListLogResponse](ctx, c, MethodListLog, in, opts)
}

// Watch opens the CrewService.Watch stream.
func (c *CrewServiceClient) Watch(
	ctx context.Context,
	in *WatchRequest,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[WatchEvent], error) {
	callOpts := append(append([]grpc.CallOption{}, c.opts...), opts...)

	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], FullMethod(MethodWatch), callOpts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[WatchRequest, WatchEvent]{ClientStream: stream}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
