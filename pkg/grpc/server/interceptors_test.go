package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/test.Service/TestMethod"}

func TestLoggingInterceptor(t *testing.T) {
	interceptor := LoggingInterceptor(zaptest.NewLogger(t))

	t.Run("successful request", func(t *testing.T) {
		resp, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
			return "success", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "success", resp)
	})

	t.Run("error request", func(t *testing.T) {
		_, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
			return nil, status.Error(codes.InvalidArgument, "test error")
		})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()

	t.Run("generates id", func(t *testing.T) {
		var got string
		_, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
			got = RequestIDFromContext(ctx)
			return nil, nil
		})
		require.NoError(t, err)
		assert.Len(t, got, 36)
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "abc-123"))

		var got string
		_, err := interceptor(ctx, nil, testInfo, func(ctx context.Context, req any) (any, error) {
			got = RequestIDFromContext(ctx)
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "abc-123", got)
	})
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zap.NewNop())

	resp, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestServerHealth(t *testing.T) {
	lis := bufconn.Listen(1 << 20)

	server, err := New(
		WithListener(lis),
		WithLogger(zaptest.NewLogger(t)),
		WithLogging(true),
	)
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve() }()
	defer func() {
		require.NoError(t, server.Shutdown(context.Background()))
		require.NoError(t, <-serveErr)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	server.SetServiceHealth("svc", healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "svc"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestNewInvalidPort(t *testing.T) {
	_, err := New(WithPort(70000))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}
