package grpc

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestIDFromContext returns the request id set by the server, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDInterceptor takes the caller's request id from metadata or
// generates one, stores it in the context and echoes it in the response
// header.
func (s *GRPCServer) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	var requestID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.RequestIDHeaderName); len(values) > 0 {
			requestID = values[0]
		}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// Fails outside a real gRPC call; the id is still in the context.
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, requestID))

	return handler(context.WithValue(ctx, requestIDKey, requestID), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"request_id", RequestIDFromContext(ctx),
		"duration", time.Since(start),
	}
	if err != nil {
		f := rpc.FaultFromError(err)
		args = append(args, "status", f.Status, "code", status.Code(err).String())
		s.logger.Warn(ctx, "command failed", args...)
		return resp, err
	}

	s.logger.Info(ctx, "command served", args...)
	return resp, nil
}

// recoveryInterceptor turns a handler panic into a 500 fault.
func (s *GRPCServer) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "panic in handler",
				"method", info.FullMethod,
				"request_id", RequestIDFromContext(ctx),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			resp, err = nil, rpc.NewFault(http.StatusInternalServerError, msgInternal)
		}
	}()

	return handler(ctx, req)
}
