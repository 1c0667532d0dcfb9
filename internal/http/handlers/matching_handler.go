// README: Driver recommendation handler.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetdispatch/internal/modules/matching"
	"fleetdispatch/internal/types"
)

type MatchingHandler struct {
	matcher *matching.Service
}

func NewMatchingHandler(svc *matching.Service) *MatchingHandler {
	return &MatchingHandler{matcher: svc}
}

func (h *MatchingHandler) Recommend(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	candidates, err := h.matcher.Recommend(c.Request.Context(), types.ID(c.Param("id")), limit)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	out := make([]map[string]any, 0, len(candidates))
	for _, cand := range candidates {
		item := map[string]any{
			"driver_id":           cand.Driver.ID,
			"name":                cand.Driver.Name,
			"phone":               cand.Driver.Phone,
			"license_type":        cand.Driver.LicenseType,
			"eligible":            cand.Eligible,
			"score":               cand.Score,
			"reasons":             cand.Reasons,
			"rest_required_hours": cand.Compliance.RestRequiredHours,
		}
		if cand.Compliance.NextAvailableTime != nil {
			item["next_available_time"] = cand.Compliance.NextAvailableTime.Format(time.RFC3339)
		}
		if cand.Proximity.Known {
			item["distance_km"] = cand.Proximity.DistanceKm
			item["eta_seconds"] = cand.Proximity.EtaSeconds
		}
		out = append(out, item)
	}
	writeJSON(c, http.StatusOK, map[string]any{"candidates": out})
}
