package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/evelinagr/apartment-booking/internal/booking"
	"github.com/evelinagr/apartment-booking/internal/config"
	"github.com/evelinagr/apartment-booking/internal/database"
	"github.com/evelinagr/apartment-booking/internal/handler"
	"github.com/evelinagr/apartment-booking/internal/middleware"
	"github.com/evelinagr/apartment-booking/internal/notify"
	"github.com/evelinagr/apartment-booking/internal/payment"
	"github.com/evelinagr/apartment-booking/internal/queue"
	"github.com/evelinagr/apartment-booking/internal/repository"
	"github.com/evelinagr/apartment-booking/internal/router"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	apartments := repository.NewApartmentRepo(db)
	hosts := repository.NewHostRepo(db)
	bookings := repository.NewBookingRepo(db)
	blocked := repository.NewBlockedDateRepo(db)

	opts := []booking.Option{booking.WithPendingHold(cfg.BookingPendingHold)}
	if cfg.ProcessorAPIURL != "" {
		opts = append(opts, booking.WithCheckout(payment.NewHostedClient(cfg.ProcessorAPIURL, cfg.ProcessorAPIKey)))
	}
	if cfg.RabbitURL != "" {
		opts = append(opts, booking.WithNotifier(notify.NewPublisher(cfg.RabbitURL)))
		// The consumer renders queued notifications; it reconnects on its
		// own and never takes the server down.
		go func() {
			if err := queue.StartNotificationConsumer(cfg.RabbitURL); err != nil {
				log.Printf("notification consumer stopped: %v", err)
			}
		}()
	}
	svc := booking.NewService(db, apartments, hosts, bookings, blocked, config.LoadProcessorFees(), opts...)

	rdb := config.NewRedisClient() // nil when redis is unreachable; middleware degrades to no-op

	e := echo.New()
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	bookingHandler := handler.NewBookingHandler(svc, apartments, bookings)
	calendarHandler := handler.NewCalendarHandler(svc, apartments, bookings, blocked)
	hostHandler := handler.NewHostBookingHandler(svc, bookings, blocked)
	webhookHandler := handler.NewPaymentWebhookHandler(svc, cfg.WebhookSecret)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, bookingHandler, calendarHandler, config.LoadCacheConfig(), rdb)
	router.RegisterHost(e, hostHandler, cfg.JWTSecret)
	router.RegisterGuest(e, bookingHandler, cfg.JWTSecret)
	router.RegisterWebhooks(e, webhookHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
