// README: Driver service: compliance derivation and location updates.
package driver

import (
	"context"
	"log"

	"fleetdispatch/internal/types"
)

type Service struct {
	store *Store
	geo   *GeoIndex
}

func NewService(store *Store, geo *GeoIndex) *Service {
	return &Service{store: store, geo: geo}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.Get(ctx, id)
}

// Compliance derives the driver's accumulated hours, required rest, and next
// available time from the work log history.
func (s *Service) Compliance(ctx context.Context, id types.ID) (Compliance, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return Compliance{}, err
	}
	logs, err := s.store.ListWorkLogs(ctx, id)
	if err != nil {
		return Compliance{}, err
	}
	return ComplianceFromLogs(logs), nil
}

// UpdateLocation persists the position and mirrors it into the GEO index.
// The index write is best-effort: the persisted position is authoritative.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	if err := s.store.UpdateLocation(ctx, id, p); err != nil {
		return err
	}
	if s.geo != nil {
		if err := s.geo.SetPosition(ctx, id, p); err != nil {
			log.Printf("geo index update failed driver=%s: %v", id, err)
		}
	}
	return nil
}

// Nearby lists drivers within radiusKm of p, closest first.
func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	if s.geo == nil {
		return nil, nil
	}
	return s.geo.Nearby(ctx, p, radiusKm)
}
