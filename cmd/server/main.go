package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/movsar/trainer-booking/internal/config"
	"github.com/movsar/trainer-booking/internal/database"
	"github.com/movsar/trainer-booking/internal/handler"
	"github.com/movsar/trainer-booking/internal/middleware"
	"github.com/movsar/trainer-booking/internal/queue"
	"github.com/movsar/trainer-booking/internal/queue_publisher"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/router"
	"github.com/movsar/trainer-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	rules := repository.NewAvailabilityRepo(db)
	slots := repository.NewSlotRepo(db)
	reservations := repository.NewReservationRepo(db)
	credits := repository.NewCreditRepo(db)
	policies := repository.NewPolicyRepo(db)
	templates := repository.NewTemplateRepo(db)
	reminders := repository.NewReminderRepo(db)
	pricing := repository.NewPricingRepo(db)

	availabilitySvc := service.NewAvailabilityService(rules, reservations)
	reservationSvc := service.NewReservationService(db, users, slots, reservations, credits, pricing)
	creditSvc := service.NewCreditService(db, users, credits)
	policySvc := service.NewPolicyService(policies, reservations)
	templateSvc := service.NewTemplateService(db, templates, slots)
	scheduler := service.NewReminderScheduler(reservations, users, reminders, queue_publisher.PublishReminderEmail)
	scheduler.Interval = time.Duration(cfg.ReminderIntervalMins) * time.Minute
	scheduler.Start()
	defer scheduler.Stop()

	// The broker consumers reconnect on their own; a failed initial dial
	// only logs, the HTTP API stays up.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer: %v", err)
		}
	}()
	go func() {
		if err := queue.StartReminderEmailConsumer(); err != nil {
			log.Printf("reminder consumer: %v", err)
		}
	}()

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	creditHandler := handler.NewCreditHandler(creditSvc, credits, pricing, cfg.WebhookSecret)
	reservationHandler := handler.NewReservationHandler(reservationSvc, policySvc, reservations, cfg.TrainerID)
	adminAvailability := handler.NewAdminAvailabilityHandler(rules)
	adminSlots := handler.NewAdminSlotHandler(slots)
	adminTemplates := handler.NewAdminTemplateHandler(templates, templateSvc)
	adminReservations := handler.NewAdminReservationHandler(reservationSvc, scheduler, reservations)
	policyHandler := handler.NewPolicyHandler(policies, cfg.TrainerID)

	e := echo.New()
	e.HideBanner = true

	// Redis backs the rate limiter and the availability cache; both
	// middlewares degrade to pass-through when the client is nil.
	rdb := config.NewRedisClient()
	var limiter, cache echo.MiddlewareFunc
	if rdb != nil {
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.RegisterRoutes(e, router.PublicHandlers{
		Availability: availabilityHandler,
		Credits:      creditHandler,
	}, cache)
	router.RegisterClient(e, router.ClientHandlers{
		Reservations: reservationHandler,
		Credits:      creditHandler,
	}, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, router.AdminHandlers{
		Availability: adminAvailability,
		Slots:        adminSlots,
		Templates:    adminTemplates,
		Reservations: adminReservations,
		Credits:      creditHandler,
		Policy:       policyHandler,
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
