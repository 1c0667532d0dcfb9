// README: Driver location, compliance, and nearby lookup handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/types"
)

type DriverHandler struct {
	drivers *driver.Service
}

func NewDriverHandler(svc *driver.Service) *DriverHandler {
	return &DriverHandler{drivers: svc}
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.drivers.UpdateLocation(c.Request.Context(), id, types.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"driver_id": id, "lat": req.Lat, "lng": req.Lng})
}

func (h *DriverHandler) Compliance(c *gin.Context) {
	id := types.ID(c.Param("id"))
	comp, err := h.drivers.Compliance(c.Request.Context(), id)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	resp := map[string]any{
		"driver_id":           id,
		"hours_worked":        comp.HoursWorked,
		"rest_required_hours": comp.RestRequiredHours,
	}
	if comp.NextAvailableTime != nil {
		resp["next_available_time"] = comp.NextAvailableTime.Format(time.RFC3339)
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radiusKm := 10.0
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			writeError(c, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radiusKm = r
	}
	ids, err := h.drivers.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radiusKm)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"driver_ids": ids})
}
