// Package rpc implements the request/response command channel shared by the
// auth service and the users service.
//
// Every command is a unary gRPC method "/<service>/<command>" whose request
// and response are google.protobuf.Struct values. Service descriptors are
// built at runtime from a command → handler map, so no generated stubs are
// needed. Failures travel as gRPC statuses carrying a Fault ({status,
// message}) in an errdetails.ErrorInfo detail.
package rpc

// Services on the channel.
const (
	AuthService  = "auth.Commands"
	UsersService = "users.Commands"
)

// Commands served by the auth service.
const (
	CmdAuthRegister = "auth_register"
	CmdAuthLogin    = "auth_login"
)

// Commands served by the users (profile) service.
const (
	CmdUserCreate  = "user_create"
	CmdUserFindOne = "user_find_one"
)

// FullMethod returns the gRPC method path of a command.
func FullMethod(service, command string) string {
	return "/" + service + "/" + command
}
