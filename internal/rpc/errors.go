package rpc

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/models"
)

var errInternal = errors.New("internal error")

// connectError maps service errors onto Connect codes. conflict is the code
// used for models.ErrConflict, which means "already exists" for creates and
// "failed precondition" for removals and for ledger writes naming a departed
// member.
func connectError(err error, conflict connect.Code) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, models.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, models.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, models.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, models.ErrConflict):
		return connect.NewError(conflict, err)
	case errors.Is(err, models.ErrInvariantViolation):
		return connect.NewError(connect.CodeInternal, err)
	default:
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}
