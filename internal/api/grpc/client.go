package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// Client представляет gRPC клиент
type Client struct {
	conn *grpc.ClientConn
	log  *logger.Logger
}

// ClientOptions настройки для gRPC клиента
type ClientOptions struct {
	Address          string
	KeepAliveTime    time.Duration
	KeepAliveTimeout time.Duration
	Dialer           func(context.Context, string) (net.Conn, error)
}

// DefaultClientOptions возвращает настройки по умолчанию
func DefaultClientOptions(address string) *ClientOptions {
	return &ClientOptions{
		Address:          address,
		KeepAliveTime:    time.Minute,
		KeepAliveTimeout: 20 * time.Second,
	}
}

// NewClient создает новый gRPC клиент
func NewClient(opts *ClientOptions, log *logger.Logger) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                opts.KeepAliveTime,
			Timeout:             opts.KeepAliveTimeout,
			PermitWithoutStream: true,
		}),
	}
	if opts.Dialer != nil {
		dialOpts = append(dialOpts, grpc.WithContextDialer(opts.Dialer))
	}

	conn, err := grpc.NewClient(opts.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client: %w", err)
	}
	log.Debugw("gRPC client created", "address", opts.Address)

	return &Client{conn: conn, log: log}, nil
}

// Check спрашивает статус сервиса через grpc.health.v1
func (c *Client) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus(), nil
}

// Close закрывает соединение с gRPC сервером
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
