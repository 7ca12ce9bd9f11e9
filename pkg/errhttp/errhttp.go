// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/datavault/pkg/httpx"
	itemdomain "github.com/ghuser/datavault/services/item/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Unrecognized errors and storage faults become a generic 500; their detail is
// never echoed to the caller.
func WriteError(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	httpx.JSONError(w, status, msg)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, itemdomain.ErrItemNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, itemdomain.ErrInvalidItem):
		return http.StatusBadRequest // 400
	case errors.Is(err, itemdomain.ErrItemAlreadyExists):
		return http.StatusConflict // 409
	case errors.Is(err, itemdomain.ErrConfirmationRequired):
		return http.StatusForbidden // 403 — destructive op without confirmation
	default:
		return http.StatusInternalServerError // 500, includes ErrStorageUnavailable
	}
}
