package grpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/emmett/dictate/internal/app"
	"github.com/emmett/dictate/internal/audio"
	"github.com/emmett/dictate/internal/session"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "dictate.v1.Control"

const (
	toggleMethod = "/" + ServiceName + "/Toggle"
	statusMethod = "/" + ServiceName + "/Status"
)

// Controller is the dictation controller exposed over gRPC
type Controller interface {
	Toggle() (session.State, error)
	Status() app.Status
}

// ControlServer is the server API for dictate.v1.Control
type ControlServer interface {
	// Toggle starts or stops recording and returns the resulting state
	Toggle(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)

	// Status returns "<state>: <message>"
	Status(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// ControlService implements ControlServer on top of a Controller
type ControlService struct {
	controller Controller
}

// NewControlService creates a control service
func NewControlService(controller Controller) *ControlService {
	return &ControlService{controller: controller}
}

// Toggle implements ControlServer
func (s *ControlService) Toggle(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	state, err := s.controller.Toggle()
	if err != nil {
		if errors.Is(err, audio.ErrDeviceUnavailable) {
			return nil, status.Error(codes.Unavailable, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.String(state.String()), nil
}

// Status implements ControlServer
func (s *ControlService) Status(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	st := s.controller.Status()
	return wrapperspb.String(FormatStatus(st)), nil
}

// FormatStatus renders a status snapshot as a single line
func FormatStatus(st app.Status) string {
	return fmt.Sprintf("%s: %s", st.State, st.Message)
}

// RegisterControlServer registers srv on s
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&controlServiceDesc, srv)
}

var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Toggle", Handler: toggleHandler},
		{MethodName: "Status", Handler: statusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dictate/v1/control.proto",
}

func toggleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Toggle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: toggleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Toggle(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
