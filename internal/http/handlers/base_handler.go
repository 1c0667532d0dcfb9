// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/matching"
	"fleetdispatch/internal/modules/trip"
	"fleetdispatch/internal/modules/vehicle"
	"fleetdispatch/internal/routing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDispatchError maps service sentinels onto HTTP statuses. Sentinels are
// matched with errors.Is because services wrap them with context.
func writeDispatchError(c *gin.Context, err error) {
	var invalid *trip.InvalidTransitionError
	switch {
	case errors.Is(err, trip.ErrNotFound),
		errors.Is(err, driver.ErrNotFound),
		errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, trip.ErrAssignmentNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &invalid),
		errors.Is(err, trip.ErrBadRequest),
		errors.Is(err, trip.ErrTripNotAssignable),
		errors.Is(err, trip.ErrActiveAssignment),
		errors.Is(err, trip.ErrNotAssigned),
		errors.Is(err, trip.ErrDelayBlocked),
		errors.Is(err, trip.ErrNoDelayReport),
		errors.Is(err, matching.ErrDriverNotAvailable),
		errors.Is(err, matching.ErrDriverUnfit),
		errors.Is(err, matching.ErrDriverResting),
		errors.Is(err, matching.ErrLicenseMismatch),
		errors.Is(err, matching.ErrCapacityExceeded):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, routing.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
