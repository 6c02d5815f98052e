package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cinetick/booking/internal/booking"
	"github.com/cinetick/booking/internal/config"
	"github.com/cinetick/booking/internal/database"
	"github.com/cinetick/booking/internal/handler"
	"github.com/cinetick/booking/internal/queue"
	"github.com/cinetick/booking/internal/repository"
	"github.com/cinetick/booking/internal/router"
	queue_publisher "github.com/cinetick/booking/internal/service"
)

func main() {
	// Local development reads .env; in production the variables come
	// from the environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unreachable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	ledger := repository.NewSeatLedgerRepo(db)
	holds := repository.NewHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	showtimes := repository.NewShowtimeRepo(db)

	publisher := queue_publisher.NewPublisher(cfg.RabbitURL)

	holdMgr := booking.NewHoldManager(db, ledger, holds, showtimes, cfg.HoldTTL)
	finalizer := booking.NewFinalizer(db, ledger, holds, bookings, showtimes, publisher)
	sweeper := booking.NewSweeper(db, ledger, holds, cfg.SweepInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweeper.Run(ctx)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("rabbitmq: consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, handler.NewSeatHandler(ledger, showtimes))
	router.RegisterBooking(e, handler.NewBookingHandler(holdMgr, finalizer, bookings), cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()

	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
