package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/godilite/sla-monitor/pkg/grpc/codec"
)

const (
	Dashboard_GetDashboard_FullMethodName   = "/slamonitor.v1.Dashboard/GetDashboard"
	Dashboard_ComputeMetrics_FullMethodName = "/slamonitor.v1.Dashboard/ComputeMetrics"
	Dashboard_Refresh_FullMethodName        = "/slamonitor.v1.Dashboard/Refresh"
)

// DashboardServer is the server API for the Dashboard service.
type DashboardServer interface {
	GetDashboard(context.Context, *DashboardRequest) (*DashboardResponse, error)
	ComputeMetrics(context.Context, *ComputeMetricsRequest) (*DashboardResponse, error)
	Refresh(context.Context, *RefreshRequest) (*DashboardResponse, error)
}

// UnimplementedDashboardServer can be embedded for forward compatibility.
type UnimplementedDashboardServer struct{}

func (UnimplementedDashboardServer) GetDashboard(context.Context, *DashboardRequest) (*DashboardResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDashboard not implemented")
}

func (UnimplementedDashboardServer) ComputeMetrics(context.Context, *ComputeMetricsRequest) (*DashboardResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ComputeMetrics not implemented")
}

func (UnimplementedDashboardServer) Refresh(context.Context, *RefreshRequest) (*DashboardResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}

func unaryHandler[Req any](
	fullMethod string,
	call func(DashboardServer, context.Context, *Req) (*DashboardResponse, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DashboardServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DashboardServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Dashboard_ServiceDesc is the grpc.ServiceDesc for the Dashboard service.
var Dashboard_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "slamonitor.v1.Dashboard",
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetDashboard",
			Handler:    unaryHandler(Dashboard_GetDashboard_FullMethodName, DashboardServer.GetDashboard),
		},
		{
			MethodName: "ComputeMetrics",
			Handler:    unaryHandler(Dashboard_ComputeMetrics_FullMethodName, DashboardServer.ComputeMetrics),
		},
		{
			MethodName: "Refresh",
			Handler:    unaryHandler(Dashboard_Refresh_FullMethodName, DashboardServer.Refresh),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "slamonitor/v1/dashboard",
}

// DashboardClient is the client API for the Dashboard service.
type DashboardClient interface {
	GetDashboard(ctx context.Context, in *DashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error)
	ComputeMetrics(ctx context.Context, in *ComputeMetricsRequest, opts ...grpc.CallOption) (*DashboardResponse, error)
	Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*DashboardResponse, error)
}

type dashboardClient struct {
	cc grpc.ClientConnInterface
}

func NewDashboardClient(cc grpc.ClientConnInterface) DashboardClient {
	return &dashboardClient{cc}
}

func (c *dashboardClient) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*DashboardResponse, error) {
	out := new(DashboardResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardClient) GetDashboard(ctx context.Context, in *DashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error) {
	return c.invoke(ctx, Dashboard_GetDashboard_FullMethodName, in, opts)
}

func (c *dashboardClient) ComputeMetrics(ctx context.Context, in *ComputeMetricsRequest, opts ...grpc.CallOption) (*DashboardResponse, error) {
	return c.invoke(ctx, Dashboard_ComputeMetrics_FullMethodName, in, opts)
}

func (c *dashboardClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*DashboardResponse, error) {
	return c.invoke(ctx, Dashboard_Refresh_FullMethodName, in, opts)
}
