package grpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
	"google.golang.org/protobuf/types/known/structpb"
)

// Public fault messages.
const (
	msgDuplicateEmail        = "Email already registered"
	msgProfileCreationFailed = "Failed to create user profile"
	msgInvalidCredentials    = "Invalid credentials"
	msgRegistrationFailed    = "Registration failed. Please try again."
	msgLoginFailed           = "Login failed. Please try again."
	msgInternal              = "Internal server error"
	msgValidationPrefix      = "Validation failed: "
)

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Registration request", "request_id", RequestIDFromContext(ctx))

	var req models.RegisterRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, rpc.NewFault(http.StatusBadRequest, msgValidationPrefix+"malformed payload")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, s.fault(ctx, err, msgRegistrationFailed)
	}

	result, err := s.auth.Register(ctx, req)
	if err != nil {
		return nil, s.fault(ctx, err, msgRegistrationFailed)
	}

	s.logger.Info(ctx, "Registered", "credential_id", result.User.ID)
	return s.encode(ctx, models.AuthResponse{User: result.User, Token: result.Token}, msgRegistrationFailed)
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	var req models.LoginRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, rpc.NewFault(http.StatusBadRequest, msgValidationPrefix+"malformed payload")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, s.fault(ctx, err, msgLoginFailed)
	}

	result, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, s.fault(ctx, err, msgLoginFailed)
	}

	return s.encode(ctx, models.AuthResponse{User: result.User, Token: result.Token}, msgLoginFailed)
}

func (s *GRPCServer) encode(ctx context.Context, resp models.AuthResponse, catchAll string) (*structpb.Struct, error) {
	out, err := rpc.Encode(resp)
	if err != nil {
		s.logger.Error(ctx, "encode response", "error", err)
		return nil, rpc.NewFault(http.StatusBadRequest, catchAll)
	}
	return out, nil
}

// fault maps a service or validation error to its public fault. Anything
// unclassified becomes a 400 with the catch-all message.
func (s *GRPCServer) fault(ctx context.Context, err error, catchAll string) *rpc.Fault {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		return rpc.NewFault(http.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrValidation):
		detail := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
		return rpc.NewFault(http.StatusBadRequest, msgValidationPrefix+detail)
	case errors.Is(err, services.ErrDuplicateEmail):
		return rpc.NewFault(http.StatusBadRequest, msgDuplicateEmail)
	case errors.Is(err, services.ErrProfileCreationFailed):
		return rpc.NewFault(http.StatusInternalServerError, msgProfileCreationFailed)
	case errors.Is(err, services.ErrInvalidCredentials):
		return rpc.NewFault(http.StatusUnauthorized, msgInvalidCredentials)
	default:
		if !errors.Is(err, services.ErrRegistrationFailed) && !errors.Is(err, services.ErrLoginFailed) {
			s.logger.Error(ctx, "unclassified error", "error", err)
		}
		return rpc.NewFault(http.StatusBadRequest, catchAll)
	}
}
