// README: Trip store backed by PostgreSQL (optimistic status_version updates).
package trip

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetdispatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, t *Trip) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO trips (
			id, vehicle_id, status, status_version,
			scheduled_departure, scheduled_arrival,
			delay_reason, delay_status, sla_extension_minutes, delay_admin_comment
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(t.ID), string(t.VehicleID), string(t.Status), t.StatusVersion,
		t.ScheduledDeparture, t.ScheduledArrival,
		t.DelayReason, string(t.DelayStatus), t.SLAExtensionMinutes, t.DelayAdminComment,
	); err != nil {
		return err
	}
	for i, p := range t.Waypoints {
		if _, err := tx.Exec(ctx, `
			INSERT INTO trip_waypoints (trip_id, seq, lat, lng) VALUES ($1, $2, $3, $4)`,
			string(t.ID), i, p.Lat, p.Lng,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, vehicle_id, status, status_version,
		       scheduled_departure, scheduled_arrival, actual_departure, actual_arrival,
		       delay_reason, delay_status, sla_extension_minutes, delay_admin_comment
		FROM trips
		WHERE id = $1`, string(id),
	)

	var t Trip
	err := row.Scan(
		&t.ID, &t.VehicleID, &t.Status, &t.StatusVersion,
		&t.ScheduledDeparture, &t.ScheduledArrival, &t.ActualDeparture, &t.ActualArrival,
		&t.DelayReason, &t.DelayStatus, &t.SLAExtensionMinutes, &t.DelayAdminComment,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT lat, lng FROM trip_waypoints WHERE trip_id = $1 ORDER BY seq`, string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p types.Point
		if err := rows.Scan(&p.Lat, &p.Lng); err != nil {
			return nil, err
		}
		t.Waypoints = append(t.Waypoints, p)
	}
	return &t, rows.Err()
}

// UpdateStatus applies a guarded transition, stamping actual departure and
// arrival as a side effect of the target status. Returns false when the
// optimistic version check loses a race.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET status = $1,
		    status_version = status_version + 1,
		    actual_departure = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE actual_departure END,
		    actual_arrival = CASE WHEN $1 = 'completed' THEN NOW() ELSE actual_arrival END
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateDelay writes the whole delay sub-record under the same optimistic
// guard, so lifecycle and delay writes to one trip never interleave.
func (s *Store) UpdateDelay(ctx context.Context, id types.ID, version int, reason string, status DelayStatus, slaMinutes int, comment string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET delay_reason = $1,
		    delay_status = $2,
		    sla_extension_minutes = $3,
		    delay_admin_comment = $4,
		    status_version = status_version + 1
		WHERE id = $5 AND status_version = $6`,
		reason, string(status), slaMinutes, comment, string(id), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const assignmentColumns = `id, trip_id, driver_id, role, status, assigned_at, started_at, completed_at`

// ActiveAssignment returns the trip's assignment in assigned or accepted
// status, or nil when none exists.
func (s *Store) ActiveAssignment(ctx context.Context, tripID types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM trip_assignments
		WHERE trip_id = $1 AND status IN ('assigned', 'accepted')
		ORDER BY assigned_at DESC
		LIMIT 1`, string(tripID),
	)
	a, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// HasActiveElsewhere reports whether the driver holds an active assignment on
// any trip other than excludeTrip.
func (s *Store) HasActiveElsewhere(ctx context.Context, driverID, excludeTrip types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trip_assignments
			WHERE driver_id = $1
			  AND status IN ('assigned', 'accepted')
			  AND trip_id <> $2
		)`, string(driverID), string(excludeTrip),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) UpdateAssignmentStatus(ctx context.Context, id int64, from, to AssignmentStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trip_assignments
		SET status = $1,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkAssignmentStarted(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE trip_assignments SET started_at = NOW() WHERE id = $1 AND started_at IS NULL`, id,
	)
	return err
}

// CommitAssignment is the authoritative assignment write. It locks the
// driver row for the duration of the transaction, re-runs the validator
// under that lock, and inserts the assignment. The partial unique index on
// active assignments backs the lock up: a concurrent commit that slips
// through still fails with ErrActiveAssignment instead of corrupting state.
func (s *Store) CommitAssignment(ctx context.Context, tripID, driverID types.ID, vehicleID *types.ID, validate func(context.Context) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serializes concurrent commits for the same driver; validation below
	// then observes any assignment committed by the transaction we waited on.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM drivers WHERE id = $1 FOR UPDATE`, string(driverID)); err != nil {
		return err
	}

	if err := validate(ctx); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO trip_assignments (trip_id, driver_id, role, status, assigned_at)
		VALUES ($1, $2, 'primary', 'assigned', NOW())`,
		string(tripID), string(driverID),
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrActiveAssignment
		}
		return err
	}

	if vehicleID != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE trips SET vehicle_id = $1 WHERE id = $2`,
			string(*vehicleID), string(tripID),
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE drivers SET status = 'in_use' WHERE id = $1`, string(driverID),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	var actorID *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actorID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_state_events (
			trip_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.TripID), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, actorID, e.CreatedAt,
	)
	return err
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	var started, completed *time.Time
	if err := row.Scan(
		&a.ID, &a.TripID, &a.DriverID, &a.Role, &a.Status,
		&a.AssignedAt, &started, &completed,
	); err != nil {
		return nil, err
	}
	a.StartedAt = started
	a.CompletedAt = completed
	return &a, nil
}
