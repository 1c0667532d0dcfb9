// README: Schema initialization executed at startup (and by cmd/dbtool).
package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates all tables and indexes if they do not exist.
// The partial unique index on trip_assignments enforces the
// one-active-assignment-per-driver rule at the storage layer, so two
// concurrent commits for the same driver cannot both land.
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS drivers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			license_type TEXT NOT NULL DEFAULT '',
			health TEXT NOT NULL DEFAULT 'fit',
			status TEXT NOT NULL DEFAULT 'available',
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			vehicle_type TEXT NOT NULL DEFAULT '',
			required_license TEXT NOT NULL DEFAULT '',
			capacity_tons DOUBLE PRECISION NOT NULL DEFAULT 0,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			status TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
			status TEXT NOT NULL DEFAULT 'scheduled',
			status_version INTEGER NOT NULL DEFAULT 0,
			scheduled_departure TIMESTAMPTZ NOT NULL,
			scheduled_arrival TIMESTAMPTZ NOT NULL,
			actual_departure TIMESTAMPTZ,
			actual_arrival TIMESTAMPTZ,
			delay_reason TEXT NOT NULL DEFAULT '',
			delay_status TEXT NOT NULL DEFAULT '',
			sla_extension_minutes INTEGER NOT NULL DEFAULT 0,
			delay_admin_comment TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS trip_waypoints (
			trip_id TEXT NOT NULL REFERENCES trips(id),
			seq INTEGER NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (trip_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS trip_assignments (
			id BIGSERIAL PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips(id),
			driver_id TEXT NOT NULL REFERENCES drivers(id),
			role TEXT NOT NULL DEFAULT 'primary',
			status TEXT NOT NULL DEFAULT 'assigned',
			assigned_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS one_active_assignment_per_driver
			ON trip_assignments (driver_id)
			WHERE status IN ('assigned', 'accepted')`,
		`CREATE TABLE IF NOT EXISTS driver_work_logs (
			id BIGSERIAL PRIMARY KEY,
			driver_id TEXT NOT NULL REFERENCES drivers(id),
			trip_id TEXT REFERENCES trips(id),
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			hours_worked DOUBLE PRECISION NOT NULL,
			rest_hours_required DOUBLE PRECISION NOT NULL DEFAULT 0,
			next_available_time TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			trip_id TEXT REFERENCES trips(id),
			customer_id TEXT NOT NULL DEFAULT '',
			weight_tons DOUBLE PRECISION NOT NULL DEFAULT 0,
			pickup_type TEXT NOT NULL DEFAULT '',
			pickup_lat DOUBLE PRECISION,
			pickup_lng DOUBLE PRECISION,
			status TEXT NOT NULL DEFAULT 'pending'
		)`,
		`CREATE TABLE IF NOT EXISTS trip_state_events (
			id BIGSERIAL PRIMARY KEY,
			trip_id TEXT NOT NULL,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			actor_type TEXT NOT NULL,
			actor_id TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
