package health

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

var log = slog.Default()

type readinessMock struct {
	ready atomic.Bool
}

func (rm *readinessMock) Ready() bool {
	return rm.ready.Load()
}

func TestServer_ServeListener(t *testing.T) {
	r := &readinessMock{}
	s := NewServer(r, 10*time.Millisecond, log)
	ln, err := net.Listen("tcp", "localhost:0")
	require.Nil(t, err)
	ctx, cancel := context.WithCancel(context.TODO())
	done := make(chan error)
	go func() {
		done <- s.ServeListener(ctx, ln)
	}()
	conn, err := grpc.NewClient(ln.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.Nil(t, err)
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)
	check := func(service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.TODO(), &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			return grpc_health_v1.HealthCheckResponse_UNKNOWN
		}
		return resp.Status
	}
	require.Eventually(t, func() bool {
		return check("") == grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)
	//
	r.ready.Store(true)
	require.Eventually(t, func() bool {
		return check("") == grpc_health_v1.HealthCheckResponse_SERVING && check(ServiceName) == grpc_health_v1.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)
	//
	r.ready.Store(false)
	require.Eventually(t, func() bool {
		return check(ServiceName) == grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)
	//
	cancel()
	assert.Nil(t, <-done)
}
