package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrPrecondition indicates the target resource is not in a state that permits the request.
var ErrPrecondition = errors.New("precondition failed")

// ErrConcurrentOperation indicates another non-terminal operation already exists for the custody record.
var ErrConcurrentOperation = errors.New("a non-terminal operation already exists for this custody record")

// ErrSegregationViolation indicates the checker of an operation is the same actor that initiated it.
var ErrSegregationViolation = errors.New("checker must differ from the operation maker")

// ErrNotOwner indicates the requester does not own the resource it is acting on.
var ErrNotOwner = errors.New("requester is not the owner")

// ErrInsufficientFunds indicates the buyer balance cannot cover the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrProvider indicates the external custody provider call failed after retries.
var ErrProvider = errors.New("custody provider request failed")

// ErrTimeout indicates the execution monitor exhausted its polling budget.
var ErrTimeout = errors.New("operation monitoring timed out")

// ErrForbidden indicates the authenticated actor is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the resource changed state concurrently and the update did not apply.
var ErrConflict = errors.New("resource state conflict")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps a lower-level error with an HTTP-ish status code and a safe message.
// Repositories return these so callers never see raw driver errors.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
