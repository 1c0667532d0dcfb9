// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetdispatch/internal/types"
)

var ErrNotFound = errors.New("vehicle not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, vehicle_type, required_license, capacity_tons, lat, lng, status
		FROM vehicles
		WHERE id = $1`, string(id),
	)

	var v Vehicle
	var lat, lng *float64
	err := row.Scan(&v.ID, &v.Type, &v.RequiredLicense, &v.CapacityTons, &lat, &lng, &v.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		v.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &v, nil
}
