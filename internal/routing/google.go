// README: Google Maps adapter for the routing provider port.
package routing

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"fleetdispatch/internal/types"
)

// GoogleProvider resolves distance/ETA through the Google Distance Matrix API.
type GoogleProvider struct {
	client  *maps.Client
	timeout time.Duration
}

func NewGoogleProvider(apiKey string, timeout time.Duration) (*GoogleProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleProvider{client: client, timeout: timeout}, nil
}

func (g *GoogleProvider) DistanceETA(ctx context.Context, origin, dest types.Point) (Estimate, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &maps.DistanceMatrixRequest{
		Origins:      []string{formatPoint(origin)},
		Destinations: []string{formatPoint(dest)},
		Mode:         maps.TravelModeDriving,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		// Timeouts and transport errors are indistinguishable to callers:
		// either way no estimate exists for this pair.
		return Estimate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return Estimate{}, fmt.Errorf("%w: empty matrix response", ErrUnavailable)
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return Estimate{}, fmt.Errorf("%w: element status %s", ErrUnavailable, el.Status)
	}

	return Estimate{
		DistanceMeters:  el.Distance.Meters,
		DurationSeconds: int(el.Duration / time.Second),
	}, nil
}

func formatPoint(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
