package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Dhoini/publishing-platform/internal/auth"
	"github.com/Dhoini/publishing-platform/internal/interceptors"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServiceName имя сервиса в протоколе проверки здоровья
const ServiceName = "publishing.Platform"

// Pinger проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server gRPC сервер: health и reflection
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	store      Pinger
	log        *logger.Logger
	addr       string
	listener   net.Listener
	stop       chan struct{}
}

// NewServer создает новый gRPC сервер
func NewServer(port string, store Pinger, validator auth.TokenValidator, log *logger.Logger) *Server {
	kaParams := keepalive.ServerParameters{
		MaxConnectionIdle:     5 * time.Minute,
		MaxConnectionAge:      time.Hour,
		MaxConnectionAgeGrace: 5 * time.Minute,
		Time:                  2 * time.Minute,
		Timeout:               20 * time.Second,
	}

	authInterceptor := interceptors.NewAuthInterceptor(log, validator,
		"/grpc.health.v1.Health/",
		"/grpc.reflection.",
	)

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(kaParams),
		grpc.ChainUnaryInterceptor(interceptors.UnaryLogging(log), authInterceptor.Unary()),
		grpc.ChainStreamInterceptor(authInterceptor.Stream()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	// Включаем reflection для удобства отладки (например, с помощью grpcurl)
	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		store:      store,
		log:        log,
		addr:       ":" + port,
		stop:       make(chan struct{}),
	}
}

// Start слушает порт и блокируется до Stop
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve обслуживает готовый listener
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	s.log.Infow("Starting gRPC server", "addr", listener.Addr().String())
	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// WatchStore периодически обновляет статус здоровья по ответу хранилища
func (s *Server) WatchStore(interval time.Duration) {
	s.CheckStore(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.CheckStore(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

// CheckStore один раз проверяет хранилище и выставляет статус
func (s *Server) CheckStore(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warnw("Store ping failed, reporting NOT_SERVING", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Stop останавливает gRPC сервер
func (s *Server) Stop() {
	s.log.Info("Stopping gRPC server")
	close(s.stop)
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
