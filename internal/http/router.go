// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetdispatch/internal/http/handlers"
	"fleetdispatch/internal/http/middleware"
	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/matching"
	"fleetdispatch/internal/modules/trip"
)

func NewRouter(
	tripService *trip.Service,
	matchingService *matching.Service,
	driverService *driver.Service,
) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	tripHandler := handlers.NewTripHandler(tripService)
	matchingHandler := handlers.NewMatchingHandler(matchingService)
	driverHandler := handlers.NewDriverHandler(driverService)

	api := r.Group("/api")
	{
		trips := api.Group("/trips")
		trips.GET("/:id", tripHandler.Get)
		trips.GET("/:id/recommendations", matchingHandler.Recommend)
		trips.POST("/:id/assign", tripHandler.Assign)
		trips.POST("/:id/status", tripHandler.UpdateStatus)
		trips.POST("/:id/assignment/accept", tripHandler.AcceptAssignment)
		trips.POST("/:id/assignment/decline", tripHandler.DeclineAssignment)
		trips.POST("/:id/assignment/cancel", tripHandler.CancelAssignment)
		trips.POST("/:id/delay", tripHandler.ReportDelay)
		trips.POST("/:id/delay/response", tripHandler.RespondDelay)

		drivers := api.Group("/drivers")
		drivers.GET("/nearby", driverHandler.Nearby)
		drivers.PUT("/:id/location", driverHandler.UpdateLocation)
		drivers.GET("/:id/compliance", driverHandler.Compliance)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
