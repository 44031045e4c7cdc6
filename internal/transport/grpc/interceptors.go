package grpc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"slotguard/backend/internal/identity"
)

// AuthInterceptor resolves the owner from the "authorization" metadata of
// BookingsService calls. Other services, such as health, pass through.
func AuthInterceptor(verifier *identity.Verifier, log *slog.Logger) gogrpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc.auth"))

	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, "/"+serviceName+"/") {
			return handler(ctx, req)
		}
		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}
		owner, err := verifier.VerifyHeader(header)
		if err != nil {
			log.Info("unauthenticated call", slog.String("rpc", info.FullMethod), slog.String("reason", err.Error()))
			return nil, status.Error(codes.Unauthenticated, "a valid bearer token is required")
		}
		return handler(identity.WithOwner(ctx, owner), req)
	}
}

// RequestTimeoutInterceptor applies timeout to calls that arrive without a
// deadline.
func RequestTimeoutInterceptor(timeout time.Duration) gogrpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}
