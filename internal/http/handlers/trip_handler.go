// README: Trip lifecycle, assignment, and delay workflow handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetdispatch/internal/modules/trip"
	"fleetdispatch/internal/types"
)

type TripHandler struct {
	trips *trip.Service
}

func NewTripHandler(svc *trip.Service) *TripHandler {
	return &TripHandler{trips: svc}
}

func (h *TripHandler) Get(c *gin.Context) {
	v, err := h.trips.View(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripViewResponse(v))
}

type updateStatusReq struct {
	Status    string `json:"status"`
	ActorType string `json:"actor_type"`
}

func (h *TripHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	to, err := trip.ParseStatus(req.Status)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	actor := req.ActorType
	if actor == "" {
		actor = "system"
	}
	t, err := h.trips.Transition(c.Request.Context(), types.ID(c.Param("id")), to, actor)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripResponse(t))
}

type assignReq struct {
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
}

func (h *TripHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	var vehicleID *types.ID
	if req.VehicleID != "" {
		id := types.ID(req.VehicleID)
		vehicleID = &id
	}
	tripID := types.ID(c.Param("id"))
	if err := h.trips.Assign(c.Request.Context(), tripID, types.ID(req.DriverID), vehicleID); err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{
		"trip_id":   tripID,
		"driver_id": req.DriverID,
		"status":    trip.AssignmentAssigned,
	})
}

type assignmentActionReq struct {
	DriverID string `json:"driver_id"`
}

func (h *TripHandler) AcceptAssignment(c *gin.Context) {
	h.assignmentAction(c, h.trips.AcceptAssignment, trip.AssignmentAccepted)
}

func (h *TripHandler) DeclineAssignment(c *gin.Context) {
	h.assignmentAction(c, h.trips.DeclineAssignment, trip.AssignmentDeclined)
}

func (h *TripHandler) assignmentAction(c *gin.Context, action func(ctx context.Context, tripID, driverID types.ID) error, result trip.AssignmentStatus) {
	var req assignmentActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	tripID := types.ID(c.Param("id"))
	if err := action(c.Request.Context(), tripID, types.ID(req.DriverID)); err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"trip_id": tripID, "status": result})
}

func (h *TripHandler) CancelAssignment(c *gin.Context) {
	tripID := types.ID(c.Param("id"))
	if err := h.trips.CancelAssignment(c.Request.Context(), tripID); err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"trip_id": tripID, "status": trip.AssignmentAssigned})
}

type reportDelayReq struct {
	DriverID string `json:"driver_id"`
	Reason   string `json:"reason"`
}

func (h *TripHandler) ReportDelay(c *gin.Context) {
	var req reportDelayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	t, err := h.trips.ReportDelay(c.Request.Context(), types.ID(req.DriverID), types.ID(c.Param("id")), req.Reason)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripResponse(t))
}

type respondDelayReq struct {
	ResponseType     string `json:"response_type"`
	ExtensionMinutes int    `json:"extension_minutes"`
	Comment          string `json:"comment"`
}

func (h *TripHandler) RespondDelay(c *gin.Context) {
	var req respondDelayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trips.RespondDelay(c.Request.Context(), types.ID(c.Param("id")), req.ResponseType, req.ExtensionMinutes, req.Comment)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripResponse(t))
}

func tripResponse(t *trip.Trip) map[string]any {
	resp := map[string]any{
		"trip_id":             t.ID,
		"vehicle_id":          t.VehicleID,
		"status":              t.Status,
		"scheduled_departure": t.ScheduledDeparture.Format(time.RFC3339),
		"scheduled_arrival":   t.ScheduledArrival.Format(time.RFC3339),
		"delay_minutes":       t.DelayMinutes(),
	}
	if t.ActualDeparture != nil {
		resp["actual_departure"] = t.ActualDeparture.Format(time.RFC3339)
	}
	if t.ActualArrival != nil {
		resp["actual_arrival"] = t.ActualArrival.Format(time.RFC3339)
	}
	if t.DelayStatus != trip.DelayNone {
		resp["delay"] = map[string]any{
			"reason":                t.DelayReason,
			"status":                t.DelayStatus,
			"sla_extension_minutes": t.SLAExtensionMinutes,
			"admin_comment":         t.DelayAdminComment,
		}
	}
	return resp
}

func tripViewResponse(v *trip.View) map[string]any {
	resp := tripResponse(v.Trip)
	if v.Assignment != nil {
		resp["assignment"] = map[string]any{
			"driver_id":   v.Assignment.DriverID,
			"status":      v.Assignment.Status,
			"assigned_at": v.Assignment.AssignedAt.Format(time.RFC3339),
		}
	}
	orders := make([]map[string]any, 0, len(v.Orders))
	for _, o := range v.Orders {
		orders = append(orders, map[string]any{
			"order_id":    o.ID,
			"customer_id": o.CustomerID,
			"weight_tons": o.WeightTons,
			"status":      o.Status,
		})
	}
	resp["orders"] = orders
	return resp
}
