// README: Order store backed by PostgreSQL.
package order

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fleetdispatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListByTrip(ctx context.Context, tripID types.ID) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, customer_id, weight_tons, pickup_type, pickup_lat, pickup_lng, status
		FROM orders
		WHERE trip_id = $1
		ORDER BY id`, string(tripID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var tripID *string
		var lat, lng *float64
		if err := rows.Scan(&o.ID, &tripID, &o.CustomerID, &o.WeightTons, &o.PickupType, &lat, &lng, &o.Status); err != nil {
			return nil, err
		}
		if tripID != nil {
			t := types.ID(*tripID)
			o.TripID = &t
		}
		if lat != nil && lng != nil {
			o.Pickup = &types.Point{Lat: *lat, Lng: *lng}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// TotalWeightByTrip sums cargo weight (tons) across the trip's orders.
func (s *Store) TotalWeightByTrip(ctx context.Context, tripID types.ID) (float64, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(weight_tons), 0)
		FROM orders
		WHERE trip_id = $1`, string(tripID),
	)
	var total float64
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkDeliveredByTrip(ctx context.Context, tripID types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE orders SET status = $1 WHERE trip_id = $2`,
		string(StatusDelivered), string(tripID),
	)
	return err
}
