package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	SeatIDs []string `json:"seat_ids,omitempty"`
}

// statusFor maps a core failure kind to its HTTP status and stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, domain.ErrSeatConflict):
		return http.StatusConflict, "seat_conflict"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return http.StatusUnprocessableEntity, "already_cancelled"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		} else {
			msg = domain.ErrStorageUnavailable.Error()
		}
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code, SeatIDs: domain.ConflictingSeats(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}
