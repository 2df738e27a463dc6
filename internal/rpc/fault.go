package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FaultDomain is stamped on every ErrorInfo produced by this package.
const FaultDomain = "gophauth.commands"

// Fault is the {status, message} error payload of the command channel.
// Status is an HTTP-style code; callers branch on it.
type Fault struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func NewFault(status int, message string) *Fault {
	return &Fault{Status: status, Message: message}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%d: %s", f.Status, f.Message)
}

// GRPCStatus lets grpc-go turn a returned *Fault into a status directly.
func (f *Fault) GRPCStatus() *status.Status {
	st := status.New(codeForStatus(f.Status), f.Message)

	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reasonForStatus(f.Status),
		Domain:   FaultDomain,
		Metadata: map[string]string{"status": strconv.Itoa(f.Status), "service": common.ServiceName},
	})
	if err != nil {
		return st
	}
	return detailed
}

// FaultFromError recovers the Fault behind an error returned by Invoke.
// Statuses without a Fault detail are mapped from their gRPC code, and
// errors that are not statuses at all become a 500.
func FaultFromError(err error) *Fault {
	if err == nil {
		return nil
	}

	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewFault(http.StatusGatewayTimeout, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return NewFault(499, "request canceled")
	}

	st, ok := status.FromError(err)
	if !ok {
		return NewFault(http.StatusInternalServerError, err.Error())
	}

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != FaultDomain {
			continue
		}
		if n, convErr := strconv.Atoi(info.GetMetadata()["status"]); convErr == nil {
			return NewFault(n, st.Message())
		}
	}

	return NewFault(statusForCode(st.Code()), st.Message())
}

func codeForStatus(s int) codes.Code {
	switch s {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	default:
		if s >= 400 && s < 500 {
			return codes.FailedPrecondition
		}
		return codes.Internal
	}
}

func statusForCode(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func reasonForStatus(s int) string {
	if text := http.StatusText(s); text != "" {
		return text
	}
	return "Status " + strconv.Itoa(s)
}
