package interceptors

import (
	"context"
	"strings"
	"time"

	"github.com/Dhoini/publishing-platform/internal/auth"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const authorIDKey contextKey = "authorID"

// AuthorIDFromContext идентификатор автора, положенный AuthInterceptor
func AuthorIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(authorIDKey).(int64)
	return id, ok
}

type AuthInterceptor struct {
	log       *logger.Logger
	validator auth.TokenValidator
	public    map[string]bool
}

// NewAuthInterceptor проверяет JWT во всех методах, кроме publicPrefixes
// (например "/grpc.health.v1.Health/").
func NewAuthInterceptor(log *logger.Logger, validator auth.TokenValidator, publicPrefixes ...string) *AuthInterceptor {
	public := make(map[string]bool, len(publicPrefixes))
	for _, p := range publicPrefixes {
		public[p] = true
	}
	return &AuthInterceptor{log: log, validator: validator, public: public}
}

func (i *AuthInterceptor) isPublic(method string) bool {
	for prefix := range i.public {
		if strings.HasPrefix(method, prefix) {
			return true
		}
	}
	return false
}

// Unary возвращает UnaryServerInterceptor для проверки JWT.
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if i.isPublic(info.FullMethod) {
			return handler(ctx, req)
		}
		newCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// Stream то же для потоковых методов (reflection, Health/Watch)
func (i *AuthInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if i.isPublic(info.FullMethod) {
			return handler(srv, ss)
		}
		if _, err := i.authenticate(ss.Context(), info.FullMethod); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func (i *AuthInterceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		i.log.Warnw("gRPC auth: missing metadata", "method", method)
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		i.log.Warnw("gRPC auth: missing authorization header", "method", method)
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}

	authHeader := authHeaders[0]
	if !strings.HasPrefix(authHeader, "Bearer ") {
		i.log.Warnw("gRPC auth: invalid authorization header format", "method", method)
		return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
	}

	claims, err := i.validator.Validate(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		i.log.Warnw("gRPC auth: invalid token", "method", method, "error", err)
		return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}

	authorID, err := claims.AuthorID()
	if err != nil {
		i.log.Warnw("gRPC auth: bad subject", "method", method, "error", err)
		return nil, status.Error(codes.Unauthenticated, "author id missing in token")
	}

	i.log.Debugw("Author authenticated via gRPC", "authorID", authorID, "method", method)
	return context.WithValue(ctx, authorIDKey, authorID), nil
}

// UnaryLogging пишет метод, код ответа и длительность каждого вызова
func UnaryLogging(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		kv := []interface{}{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		switch code {
		case codes.OK:
			log.Debugw("gRPC request", kv...)
		case codes.Internal, codes.Unknown, codes.Unavailable:
			log.Errorw("gRPC request failed", append(kv, "error", err)...)
		default:
			log.Warnw("gRPC request rejected", append(kv, "error", err)...)
		}
		return resp, err
	}
}
