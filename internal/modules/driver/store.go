// README: Driver store backed by PostgreSQL.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetdispatch/internal/types"
)

var ErrNotFound = errors.New("driver not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const driverColumns = `id, name, phone, license_type, health, status, lat, lng, rating`

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE id = $1`, string(id),
	)
	d, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListAvailableFit returns the recommendation candidate pool: drivers that
// are both available and fit.
func (s *Store) ListAvailableFit(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE status = $1 AND health = $2
		ORDER BY id`,
		string(StatusAvailable), string(HealthFit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, status Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET status = $1 WHERE id = $2`,
		string(status), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET lat = $1, lng = $2 WHERE id = $3`,
		p.Lat, p.Lng, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListWorkLogs(ctx context.Context, driverID types.ID) ([]WorkLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, driver_id, trip_id, start_time, end_time,
		       hours_worked, rest_hours_required, next_available_time
		FROM driver_work_logs
		WHERE driver_id = $1
		ORDER BY end_time`, string(driverID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkLog
	for rows.Next() {
		var l WorkLog
		var tripID *string
		var nextAvailable *time.Time
		if err := rows.Scan(
			&l.ID, &l.DriverID, &tripID, &l.StartTime, &l.EndTime,
			&l.HoursWorked, &l.RestHoursRequired, &nextAvailable,
		); err != nil {
			return nil, err
		}
		if tripID != nil {
			t := types.ID(*tripID)
			l.TripID = &t
		}
		l.NextAvailableTime = nextAvailable
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) AppendWorkLog(ctx context.Context, l WorkLog) error {
	var tripID *string
	if l.TripID != nil {
		v := string(*l.TripID)
		tripID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO driver_work_logs (
			driver_id, trip_id, start_time, end_time,
			hours_worked, rest_hours_required, next_available_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(l.DriverID), tripID, l.StartTime, l.EndTime,
		l.HoursWorked, l.RestHoursRequired, l.NextAvailableTime,
	)
	return err
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var lat, lng *float64
	if err := row.Scan(
		&d.ID, &d.Name, &d.Phone, &d.LicenseType, &d.Health, &d.Status,
		&lat, &lng, &d.Rating,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		d.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &d, nil
}
