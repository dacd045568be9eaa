package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by the domain layer. Services wrap these with
// human-readable detail; handlers map them to HTTP statuses here.
var (
	// ErrValidation marks malformed or missing input; the caller must fix the request.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent product, sale, customer or expense.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict marks a state conflict: insufficient stock, refund above the
	// refundable quantity, duplicate receipt reference.
	ErrConflict = errors.New("conflict")
	// ErrTransient marks a store-level failure (timeout, serialization abort).
	// The whole operation was atomic and may be retried unchanged.
	ErrTransient = errors.New("transient store error")
	// ErrUnauthorized marks missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks a role that is not allowed to perform the action.
	ErrForbidden = errors.New("forbidden")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrTransient):
		Problem(w, http.StatusServiceUnavailable, "Temporarily Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
