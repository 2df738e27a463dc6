package grpc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

func newTestServer(buf *bytes.Buffer) *GRPCServer {
	var l logging.Logger = logging.Nop{}
	if buf != nil {
		l = logging.NewSlogLogger(slog.New(slog.NewJSONHandler(buf, nil)))
	}
	s, _ := NewGRPCServer("bufnet", l, &fakeAuth{})
	return s
}

var testInfo = &grpc.UnaryServerInfo{FullMethod: rpc.FullMethod(rpc.AuthService, rpc.CmdAuthLogin)}

func TestRequestIDInterceptor_UsesIncomingID(t *testing.T) {
	s := newTestServer(nil)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.RequestIDHeaderName, "req-42"))

	var got string
	_, err := s.requestIDInterceptor(ctx, nil, testInfo, func(ctx context.Context, req any) (any, error) {
		got = RequestIDFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", got)
}

func TestRequestIDInterceptor_GeneratesID(t *testing.T) {
	s := newTestServer(nil)

	var got string
	_, err := s.requestIDInterceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		got = RequestIDFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 36)
}

func TestRequestID_EchoedInHeader(t *testing.T) {
	fa := &fakeAuth{loginOut: &services.LoginResult{Token: "tok"}}
	conn := startTestServer(t, newServer(t, fa))

	req, err := structpb.NewStruct(map[string]any{"email": "a@b.com", "password": "x"})
	require.NoError(t, err)

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.RequestIDHeaderName, "req-7")
	_, err = rpc.Invoke(ctx, conn, rpc.AuthService, rpc.CmdAuthLogin, req, grpc.Header(&header))
	require.NoError(t, err)

	assert.Equal(t, []string{"req-7"}, header.Get(common.RequestIDHeaderName))
}

func TestRecoveryInterceptor(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(&buf)

	resp, err := s.recoveryInterceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		panic("kaboom")
	})
	assert.Nil(t, resp)

	var f *rpc.Fault
	require.True(t, errors.As(err, &f))
	assert.Equal(t, http.StatusInternalServerError, f.Status)
	assert.Equal(t, "Internal server error", f.Message)
	assert.Contains(t, buf.String(), "kaboom")
	assert.Contains(t, buf.String(), "panic in handler")
}

func TestRecoveryInterceptor_PassThrough(t *testing.T) {
	s := newTestServer(nil)

	resp, err := s.recoveryInterceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(&buf)

	_, err := s.loggingInterceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		return nil, rpc.NewFault(http.StatusUnauthorized, "Invalid credentials")
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status":401`)
	assert.Contains(t, out, "/auth.Commands/auth_login")

	buf.Reset()
	_, err = s.loggingInterceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "command served")
}
