package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/faculty-fest/internal/config"
	"github.com/iliyamo/faculty-fest/internal/database"
	"github.com/iliyamo/faculty-fest/internal/handler"
	"github.com/iliyamo/faculty-fest/internal/middleware"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/notify"
	"github.com/iliyamo/faculty-fest/internal/queue"
	"github.com/iliyamo/faculty-fest/internal/repository"
	"github.com/iliyamo/faculty-fest/internal/router"
	"github.com/iliyamo/faculty-fest/internal/scheduler"
	"github.com/iliyamo/faculty-fest/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	registrants := repository.NewRegistrantRepo(db)
	roles := repository.NewRoleRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	claims := repository.NewClaimRepo(db)

	if cfg.AdminSIC != "" {
		grantAdmin(registrants, roles, cfg.AdminSIC)
	}

	dispatcher := newDispatcher(cfg.Notify)
	notifier := service.NewVoucherNotifier(registrants, dispatcher, rankChannels(cfg.Notify.Channels)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher service.RankPublisher
	if cfg.RabbitURL != "" {
		amqpPub := service.NewAMQPPublisher(cfg.RabbitURL, 256, 2*time.Second)
		go amqpPub.Run(ctx)
		publisher = amqpPub
		go func() {
			if err := queue.StartRankConsumer(ctx, cfg.RabbitURL, notifier.HandleRankAssigned); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("rank-consumer: stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set, rank notifications are sent in-process")
		publisher = &service.AsyncPublisher{Handle: notifier.HandleRankAssigned, Timeout: cfg.Notify.HTTPTimeout * 3}
	}

	if cfg.Scheduler.Enabled {
		ch, err := notify.ParseChannel(cfg.Scheduler.Channel)
		if err != nil {
			log.Fatalf("REMINDER_CHANNEL: %v", err)
		}
		sched, err := scheduler.StartReminders(notifier, ch, cfg.Scheduler.Interval, 10*time.Minute)
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		defer func() { _ = sched.Shutdown() }()
	}

	registration := service.NewRegistration(registrants, publisher, cfg.BcryptCost)
	guard := service.NewGuard(claims, bookings, events, service.NewMarker(rdb, "fest:guard", cfg.ClaimCacheTTL))

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, cfg.JWTSecret))

	eventHandler := handler.NewEventHandler(events, bookings, guard)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, registration, registrants, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, eventHandler, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterRegistrant(e, handler.NewVoucherHandler(registrants, claims, guard), eventHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Registrants: registrants,
		Claims:      claims,
		Events:      events,
		Bookings:    bookings,
		Notifier:    notifier,
		EventsChanged: func(ctx context.Context) error {
			return middleware.InvalidateCache(ctx, cacheCfg, rdb)
		},
	}, roles, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// newDispatcher wires whichever providers have credentials.
func newDispatcher(cfg config.NotifyConfig) *notify.Dispatcher {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	var sms, email notify.Sender
	if s, err := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, client); err == nil {
		sms = s
	} else {
		log.Printf("notify: sms disabled: %v", err)
	}
	if s, err := notify.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, client); err == nil {
		email = s
	} else {
		log.Printf("notify: email disabled: %v", err)
	}
	return notify.NewDispatcher(sms, email, cfg.RatePerSecond, cfg.Burst)
}

func rankChannels(names []string) []notify.Channel {
	var out []notify.Channel
	for _, n := range names {
		ch, err := notify.ParseChannel(n)
		if err != nil {
			log.Printf("NOTIFY_CHANNELS: %v", err)
			continue
		}
		out = append(out, ch)
	}
	return out
}

func grantAdmin(registrants *repository.RegistrantRepo, roles *repository.RoleRepo, sic string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reg, err := registrants.GetBySIC(ctx, sic)
	if err != nil {
		log.Printf("ADMIN_SIC %s: %v", sic, err)
		return
	}
	if err := roles.Grant(ctx, reg.ID, model.RoleAdmin); err != nil {
		log.Printf("grant admin to %s: %v", sic, err)
	}
}
