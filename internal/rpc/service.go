package rpc

import (
	"context"
	"sort"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler serves one command.
type Handler func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// NewServiceDesc builds a grpc.ServiceDesc with one unary method per
// command. Register it with any non-nil implementation value, e.g.
//
//	srv.RegisterService(rpc.NewServiceDesc(rpc.AuthService, handlers), struct{}{})
func NewServiceDesc(service string, handlers map[string]Handler) *grpc.ServiceDesc {
	commands := make([]string, 0, len(handlers))
	for cmd := range handlers {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)

	desc := &grpc.ServiceDesc{
		ServiceName: service,
		HandlerType: (*any)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "gophauth/rpc",
	}

	for _, cmd := range commands {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: cmd,
			Handler:    methodHandler(FullMethod(service, cmd), handlers[cmd]),
		})
	}

	return desc
}

func methodHandler(fullMethod string, h Handler) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return h(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return h(ctx, req.(*structpb.Struct))
		})
	}
}

// Invoke sends a command and waits for its single response.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, service, command string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, FullMethod(service, command), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
