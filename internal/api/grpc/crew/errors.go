package crew

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/crew-alert/internal/auth"
	domain "github.com/oshokin/crew-alert/internal/domain/crew"
)

// toStatus maps a domain error to a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code

	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		code = codes.Unauthenticated
	case errors.Is(err, domain.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrAlreadyResolved):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}

	return status.Error(code, err.Error())
}

// RemoteError is a server-side domain error received over gRPC. It unwraps
// to the matching domain sentinel, so errors.Is works on both sides.
type RemoteError struct {
	status   *status.Status
	sentinel error
}

// Error returns the server's message.
func (e *RemoteError) Error() string {
	return e.status.Message()
}

// Unwrap returns the domain sentinel.
func (e *RemoteError) Unwrap() error {
	return e.sentinel
}

// GRPCStatus keeps status.Code working on the mapped error.
func (e *RemoteError) GRPCStatus() *status.Status {
	return e.status
}

// FromError maps a gRPC status error back to a domain error. Errors whose
// code has no domain meaning are returned unchanged.
func FromError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error

	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = auth.ErrInvalidCode
	case codes.InvalidArgument:
		sentinel = domain.ErrInvalidInput
	case codes.NotFound:
		sentinel = domain.ErrNotFound
	case codes.FailedPrecondition:
		sentinel = domain.ErrAlreadyResolved
	case codes.PermissionDenied:
		sentinel = domain.ErrForbidden
	default:
		return err
	}

	return &RemoteError{status: st, sentinel: sentinel}
}
