// Package authclient calls the auth service over the command channel.
package authclient

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	DNI       string `json:"dni"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a successful auth_register or auth_login reply.
type Session struct {
	User  map[string]any `json:"user"`
	Token string         `json:"token"`
}

type Client struct {
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

// NewClient wraps cc. A non-positive timeout leaves deadlines to the caller.
func NewClient(cc grpc.ClientConnInterface, timeout time.Duration) *Client {
	return &Client{cc: cc, timeout: timeout}
}

// Dial opens a plaintext connection to the auth service. Every call made
// through it carries a fresh request ID.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	)
}

func requestIDInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	if md, ok := metadata.FromOutgoingContext(ctx); !ok || len(md.Get(common.RequestIDHeaderName)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, common.RequestIDHeaderName, uuid.NewString())
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// Register runs auth_register. Service failures come back as *rpc.Fault.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	return c.call(ctx, rpc.CmdAuthRegister, in)
}

// Login runs auth_login. Service failures come back as *rpc.Fault.
func (c *Client) Login(ctx context.Context, in LoginInput) (*Session, error) {
	return c.call(ctx, rpc.CmdAuthLogin, in)
}

func (c *Client) call(ctx context.Context, cmd string, in any) (*Session, error) {
	req, err := rpc.Encode(in)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := rpc.Invoke(ctx, c.cc, rpc.AuthService, cmd, req)
	if err != nil {
		return nil, rpc.FaultFromError(err)
	}

	var s Session
	if err := rpc.Decode(resp, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	return &s, nil
}
