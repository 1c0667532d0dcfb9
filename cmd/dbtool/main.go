// README: Schema init and demo seed CLI.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"fleetdispatch/internal/config"
	"fleetdispatch/internal/infra"
	"fleetdispatch/internal/modules/trip"
	"fleetdispatch/internal/types"
)

func main() {
	seed := flag.Bool("seed", false, "insert demo fleet data after creating the schema")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	if err := infra.InitSchema(ctx, dbPool); err != nil {
		log.Fatalf("schema init: %v", err)
	}
	log.Println("schema ready")

	if *seed {
		if err := seedDemo(ctx, dbPool); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Println("demo data inserted")
	}
}

func seedDemo(ctx context.Context, db *pgxpool.Pool) error {
	fleet := []string{
		`INSERT INTO drivers (id, name, phone, license_type, health, status, lat, lng, rating)
		 VALUES
		   ('drv-1', 'Chen Wei', '+886900000001', 'B', 'fit', 'available', 25.0330, 121.5654, 4.8),
		   ('drv-2', 'Lin Mei', '+886900000002', 'C', 'fit', 'available', 25.0478, 121.5170, 4.6),
		   ('drv-3', 'Wang Po', '+886900000003', 'B', 'resting', 'available', 24.9936, 121.3010, 4.2)
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO vehicles (id, vehicle_type, required_license, capacity_tons, lat, lng, status)
		 VALUES
		   ('veh-1', 'box_truck', 'B', 3.5, 25.0330, 121.5654, 'active'),
		   ('veh-2', 'refrigerated', 'C', 8.0, 25.0478, 121.5170, 'active')
		 ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range fleet {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = 'trip-1')`).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		err := trip.NewStore(db).Create(ctx, &trip.Trip{
			ID:                 "trip-1",
			VehicleID:          "veh-1",
			Status:             trip.StatusScheduled,
			Waypoints:          []types.Point{{Lat: 25.0330, Lng: 121.5654}, {Lat: 24.1477, Lng: 120.6736}},
			ScheduledDeparture: time.Now().Add(2 * time.Hour),
			ScheduledArrival:   time.Now().Add(6 * time.Hour),
		})
		if err != nil {
			return err
		}
	}

	_, err := db.Exec(ctx, `
		INSERT INTO orders (id, trip_id, customer_id, weight_tons, pickup_type, pickup_lat, pickup_lng, status)
		VALUES
		  ('ord-1', 'trip-1', 'cust-1', 1.2, 'dock', 25.0330, 121.5654, 'assigned'),
		  ('ord-2', 'trip-1', 'cust-2', 0.8, 'dock', 25.0330, 121.5654, 'assigned')
		ON CONFLICT (id) DO NOTHING`)
	return err
}
