package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/velora-hq/velora-hcm/modules/lifecycle/domain/changerequest"
)

// ServiceError is the typed error the request-handling layer translates
// into user-facing responses. Status carries the HTTP mapping so the
// controller never has to re-derive it.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

const (
	CodeNotFound          = "LC_NOT_FOUND"
	CodeUnauthorized      = "LC_UNAUTHORIZED"
	CodeInvalidTransition = "LC_INVALID_TRANSITION"
	CodeInvalidBody       = "LC_INVALID_BODY"
	CodeConflict          = "LC_CONFLICT"
	CodeApplyFailed       = "LC_APPLY_FAILED"
)

func notFoundError(message string, cause error) *ServiceError {
	return newServiceError(http.StatusNotFound, CodeNotFound, message, cause)
}

func unauthorizedError(message string) *ServiceError {
	return newServiceError(http.StatusForbidden, CodeUnauthorized, message, nil)
}

func invalidTransitionError(message string, cause error) *ServiceError {
	return newServiceError(http.StatusUnprocessableEntity, CodeInvalidTransition, message, cause)
}

func invalidBodyError(message string, cause error) *ServiceError {
	return newServiceError(http.StatusBadRequest, CodeInvalidBody, message, cause)
}

func conflictError(message string, cause error) *ServiceError {
	return newServiceError(http.StatusConflict, CodeConflict, message, cause)
}

func applyFailedError(message string, cause error) *ServiceError {
	return newServiceError(http.StatusInternalServerError, CodeApplyFailed, message, cause)
}

// translateRepoError maps optimistic-concurrency and lookup failures
// from the repository onto the service taxonomy.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, changerequest.ErrNotFound):
		return notFoundError("change request not found", err)
	case errors.Is(err, changerequest.ErrStatusConflict):
		recordTransitionConflict("status")
		return conflictError("request status changed concurrently", err)
	default:
		return err
	}
}
