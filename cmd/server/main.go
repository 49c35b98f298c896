package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/equipment-rental/internal/config"
	"github.com/iliyamo/equipment-rental/internal/database"
	"github.com/iliyamo/equipment-rental/internal/handler"
	"github.com/iliyamo/equipment-rental/internal/pricing"
	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
	"github.com/iliyamo/equipment-rental/internal/reservation"
	"github.com/iliyamo/equipment-rental/internal/router"
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Repositories over the shared handle.
	equipmentRepo := repository.NewEquipmentRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	projectRepo := repository.NewProjectRepo(db)

	// The coordinator is the single write gate for bookings: per-process
	// equipment locks with a bounded wait in front of the row locks the
	// transactions take.
	coordinator := reservation.NewCoordinator(
		repository.NewTxStore(db, equipmentRepo, bookingRepo),
		reservation.NewLockRegistry(),
		pricing.FlatDaily{},
		cfg.LockTimeout,
	)

	availabilityHandler := handler.NewAvailabilityHandler(equipmentRepo, bookingRepo)
	equipmentHandler := handler.NewEquipmentHandler(equipmentRepo, bookingRepo)
	reservationHandler := handler.NewReservationHandler(coordinator, projectRepo, equipmentRepo, bookingRepo, cfg.MaxBatchLines)
	bookingHandler := handler.NewBookingHandler(bookingRepo)
	projectHandler := handler.NewProjectHandler(projectRepo, bookingRepo)

	// Redis is optional: nil disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterBrowse(e, equipmentHandler, availabilityHandler, rdb)
	router.RegisterBooking(e, reservationHandler, bookingHandler, projectHandler, equipmentHandler)

	// Background consumer logging committed bookings; reconnects forever.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
