package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/flightreservation/api"
	"github.com/Domenick1991/flightreservation/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 5 * time.Second

// ServiceName is the name reported by the gRPC health service next to the
// overall "" entry.
const ServiceName = "flightreservation"

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	serving    atomic.Bool
	log        *zap.Logger
}

func NewServers(cfg *config.Config, svc api.Services, tokens api.TokenParser, log *zap.Logger) *Servers {
	s := &Servers{log: log.With(zap.String("component", "bootstrap"))}

	s.health = health.NewServer()
	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	s.httpServer = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(svc, tokens, s.serving.Load, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run starts gRPC and HTTP servers and blocks until ctx is canceled or a
// server fails. Health turns NOT_SERVING before the servers drain.
func Run(ctx context.Context, cfg *config.Config, svc api.Services, tokens api.TokenParser, log *zap.Logger) error {
	s := NewServers(cfg, svc, tokens, log)

	grpcLis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTP.Address)
	if err != nil {
		grpcLis.Close()
		return fmt.Errorf("listen HTTP %s: %w", cfg.HTTP.Address, err)
	}
	return s.Serve(ctx, grpcLis, httpLis)
}

func (s *Servers) Serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	s.setServing(true)

	g.Go(func() error {
		s.log.Info("gRPC server listening", zap.String("address", grpcLis.Addr().String()))
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.log.Info("HTTP server listening", zap.String("address", httpLis.Addr().String()))
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down servers")
		s.setServing(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.stopGRPC(shutdownCtx)
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// stopGRPC drains in-flight calls and force-closes open health watch
// streams once ctx expires.
func (s *Servers) stopGRPC(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-done
	}
}

func (s *Servers) setServing(serving bool) {
	s.serving.Store(serving)
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Health exposes the health service for in-process checks.
func (s *Servers) Health() *health.Server {
	return s.health
}

func (s *Servers) Handler() http.Handler {
	return s.httpServer.Handler
}
