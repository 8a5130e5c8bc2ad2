package health

import (
	"context"
	"fmt"
	"google.golang.org/grpc"
	grpcHealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"log/slog"
	"net"
	"time"
)

// Readiness is implemented by the listener.
type Readiness interface {
	Ready() bool
}

type Server struct {
	r        Readiness
	interval time.Duration
	health   *grpcHealth.Server
	log      *slog.Logger
}

// ServiceName is the health service name reported besides the overall one.
const ServiceName = "eventsub"

func NewServer(r Readiness, interval time.Duration, log *slog.Logger) *Server {
	return &Server{
		r:        r,
		interval: interval,
		health:   grpcHealth.NewServer(),
		log:      log,
	}
}

// Update sets the serving status by the current readiness.
func (s *Server) Update() {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if s.r.Ready() {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) Serve(ctx context.Context, port uint16) (err error) {
	var ln net.Listener
	ln, err = net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err == nil {
		err = s.ServeListener(ctx, ln)
	}
	return
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) (err error) {
	srv := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)
	s.Update()
	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-t.C:
				s.Update()
			}
		}
	}()
	s.log.Info(fmt.Sprintf("Health server listening on %s", ln.Addr()))
	err = srv.Serve(ln)
	return
}
