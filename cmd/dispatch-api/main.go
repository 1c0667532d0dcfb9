// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fleetdispatch/internal/config"
	httptransport "fleetdispatch/internal/http"
	"fleetdispatch/internal/infra"
	"fleetdispatch/internal/modules/driver"
	"fleetdispatch/internal/modules/matching"
	"fleetdispatch/internal/modules/order"
	"fleetdispatch/internal/modules/trip"
	"fleetdispatch/internal/modules/vehicle"
	"fleetdispatch/internal/notify"
	"fleetdispatch/internal/routing"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	if err := infra.InitSchema(ctx, dbPool); err != nil {
		log.Fatalf("schema init: %v", err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.AMQP.URL != "" {
		conn, err := infra.NewAMQP(cfg.AMQP.URL)
		if err != nil {
			log.Fatalf("amqp dial: %v", err)
		}
		defer conn.Close()
		notifier, err = notify.NewAMQPNotifier(conn, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatalf("amqp notifier: %v", err)
		}
	}

	var provider routing.Provider
	if cfg.Maps.APIKey != "" {
		provider, err = routing.NewGoogleProvider(cfg.Maps.APIKey, cfg.Matching.RoutingTimeout)
		if err != nil {
			log.Fatalf("maps client: %v", err)
		}
	} else {
		log.Println("GOOGLE_MAPS_API_KEY not set, using haversine estimates")
		provider = routing.NewHaversineProvider(0)
	}

	driverStore := driver.NewStore(dbPool)
	driverGeo := driver.NewGeoIndex(redisClient)
	driverSvc := driver.NewService(driverStore, driverGeo)

	vehicleStore := vehicle.NewStore(dbPool)
	orderStore := order.NewStore(dbPool)
	tripStore := trip.NewStore(dbPool)

	prox := matching.NewProximityScorer(provider)
	matchingSvc := matching.NewService(tripStore, vehicleStore, driverStore, orderStore, tripStore, prox, cfg.Matching)
	validator := matching.NewValidator(tripStore, vehicleStore, driverStore, orderStore, tripStore)

	tripSvc := trip.NewService(tripStore, driverStore, orderStore, validator, notifier)

	handler := httptransport.NewRouter(tripSvc, matchingSvc, driverSvc)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("dispatch-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
