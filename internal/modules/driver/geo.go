// README: Redis GEO index for driver positions.
package driver

import (
	"context"

	"github.com/redis/go-redis/v9"

	"fleetdispatch/internal/types"
)

const geoKey = "dispatch:drivers:geo"

// GeoIndex mirrors driver positions into a Redis GEO set so dispatchers can
// query nearby drivers without scanning Postgres.
type GeoIndex struct {
	redis *redis.Client
}

func NewGeoIndex(r *redis.Client) *GeoIndex {
	return &GeoIndex{redis: r}
}

func (g *GeoIndex) SetPosition(ctx context.Context, id types.ID, p types.Point) error {
	return g.redis.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (g *GeoIndex) Remove(ctx context.Context, id types.ID) error {
	return g.redis.ZRem(ctx, geoKey, string(id)).Err()
}

// Nearby returns driver ids within radiusKm of p, closest first.
func (g *GeoIndex) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := g.redis.GeoSearch(ctx, geoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
