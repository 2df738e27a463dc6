// Package grpc serves the auth commands (auth_register, auth_login) on the
// command channel.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
	"google.golang.org/grpc"
)

// Authenticator is the business logic behind the auth commands.
type Authenticator interface {
	Register(ctx context.Context, req models.RegisterRequest) (*services.RegisterResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*services.LoginResult, error)
}

type GRPCServer struct {
	address   string
	auth      Authenticator
	validator *validation.Validator
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, svc Authenticator) (*GRPCServer, error) {
	if l == nil {
		l = logging.Nop{}
	}
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		auth:      svc,
		validator: validation.New(),
	}, nil
}

// Handlers maps every served command to its handler.
func (s *GRPCServer) Handlers() map[string]rpc.Handler {
	return map[string]rpc.Handler{
		rpc.CmdAuthRegister: s.Register,
		rpc.CmdAuthLogin:    s.Login,
	}
}

// NewServer builds the gRPC server with the interceptor chain and the auth
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		s.requestIDInterceptor,
		s.loggingInterceptor,
		s.recoveryInterceptor,
	))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(rpc.NewServiceDesc(rpc.AuthService, s.Handlers()), s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
