// README: Straight-line fallback provider for local runs without an API key.
package routing

import (
	"context"
	"math"

	"fleetdispatch/internal/types"
)

// HaversineProvider estimates distance as the great-circle distance and
// duration from a fixed average speed. Useful for local/dev runs and seeds.
type HaversineProvider struct {
	SpeedKmh float64
}

func NewHaversineProvider(speedKmh float64) *HaversineProvider {
	if speedKmh <= 0 {
		speedKmh = 40
	}
	return &HaversineProvider{SpeedKmh: speedKmh}
}

func (h *HaversineProvider) DistanceETA(ctx context.Context, origin, dest types.Point) (Estimate, error) {
	km := haversineKm(origin, dest)
	return Estimate{
		DistanceMeters:  int(km * 1000),
		DurationSeconds: int(km / h.SpeedKmh * 3600),
	}, nil
}

func haversineKm(a, b types.Point) float64 {
	const R = 6371.0
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dlat := (b.Lat - a.Lat) * math.Pi / 180.0
	dlng := (b.Lng - a.Lng) * math.Pi / 180.0
	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * R * math.Asin(math.Sqrt(h))
}
