package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "techsupport.scheduling.v1.Scheduling"

type SchedulingServer interface {
	GetWeek(ctx context.Context, req *GetWeekRequest) (*GetWeekResponse, error)
	ResolveSlots(ctx context.Context, req *ResolveSlotsRequest) (*ResolveSlotsResponse, error)
	GetAppointment(ctx context.Context, req *GetAppointmentRequest) (*GetAppointmentResponse, error)
	ListTechnicianAppointments(ctx context.Context, req *ListTechnicianAppointmentsRequest) (*ListTechnicianAppointmentsResponse, error)
}

func RegisterSchedulingServer(s grpc.ServiceRegistrar, srv SchedulingServer) {
	s.RegisterService(&schedulingServiceDesc, srv)
}

// unary adapts a typed method to grpc's untyped handler signature.
func unary[Req any, Resp any](method string, call func(SchedulingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SchedulingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(SchedulingServer), ctx, req.(*Req))
			})
		},
	}
}

var schedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetWeek", SchedulingServer.GetWeek),
		unary("ResolveSlots", SchedulingServer.ResolveSlots),
		unary("GetAppointment", SchedulingServer.GetAppointment),
		unary("ListTechnicianAppointments", SchedulingServer.ListTechnicianAppointments),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "techsupport/scheduling/v1",
}

// Client calls the Scheduling service with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetWeek(ctx context.Context, in *GetWeekRequest, opts ...grpc.CallOption) (*GetWeekResponse, error) {
	return invoke[GetWeekResponse](ctx, c.cc, "GetWeek", in, opts)
}

func (c *Client) ResolveSlots(ctx context.Context, in *ResolveSlotsRequest, opts ...grpc.CallOption) (*ResolveSlotsResponse, error) {
	return invoke[ResolveSlotsResponse](ctx, c.cc, "ResolveSlots", in, opts)
}

func (c *Client) GetAppointment(ctx context.Context, in *GetAppointmentRequest, opts ...grpc.CallOption) (*GetAppointmentResponse, error) {
	return invoke[GetAppointmentResponse](ctx, c.cc, "GetAppointment", in, opts)
}

func (c *Client) ListTechnicianAppointments(ctx context.Context, in *ListTechnicianAppointmentsRequest, opts ...grpc.CallOption) (*ListTechnicianAppointmentsResponse, error) {
	return invoke[ListTechnicianAppointmentsResponse](ctx, c.cc, "ListTechnicianAppointments", in, opts)
}
