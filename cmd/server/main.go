package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request logging and panic recovery

	"github.com/iliyamo/flowdesk/internal/clock"
	"github.com/iliyamo/flowdesk/internal/config"
	"github.com/iliyamo/flowdesk/internal/handler"
	"github.com/iliyamo/flowdesk/internal/middleware"
	"github.com/iliyamo/flowdesk/internal/queue"
	"github.com/iliyamo/flowdesk/internal/repository"
	"github.com/iliyamo/flowdesk/internal/router"
	"github.com/iliyamo/flowdesk/internal/service"
	"github.com/iliyamo/flowdesk/internal/utils"
)

func main() {
	cfg := config.Load()
	log := utils.NewLogger(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []service.EngineOption{service.WithLogger(log), service.WithClock(clock.NewSystem())}
	if cfg.Events.Enabled {
		opts = append(opts, service.WithEventPublisher(
			service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue, log.WithField("component", "publisher"))))
	}
	engine := service.NewQueueEngine(repository.NewSeatRepo(repository.DefaultCatalog()), opts...)
	if cfg.SeedDemo {
		if err := engine.Preload(service.DemoReservations()); err != nil {
			log.WithError(err).Fatal("preload demo reservations")
		}
	}

	gate, err := service.NewStaffGate(cfg.StaffPassword, cfg.JWTSecret, cfg.BcryptCost, cfg.AccessTTL(), engine, log.WithField("component", "staff"))
	if err != nil {
		log.WithError(err).Fatal("staff gate")
	}
	sessions := service.NewSessionStore(engine, cfg.NotifyInterval, clock.NewSystem(), log.WithField("component", "sessions"))
	defer sessions.CloseAll()
	if err := sessions.StartExpiry(cfg.SessionIdleTTL, cfg.SessionSweepInterval); err != nil {
		log.WithError(err).Fatal("session expiry")
	}

	if cfg.Events.ConsumerEnabled {
		consumer := &queue.Consumer{
			URL:   cfg.Events.URL,
			Queue: cfg.Events.Queue,
			Dir:   cfg.Events.LogDir,
			Log:   log.WithField("component", "consumer"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("queue consumer stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.WithField("method", v.Method).
				WithField("uri", v.URI).
				WithField("status", v.Status).
				WithField("latency", v.Latency).
				Info("request")
			return nil
		},
	}))

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable; rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.WithField("component", "ratelimit")))

	router.RegisterRoutes(e, engine)
	router.RegisterDesk(e, handler.NewSessionHandler(sessions), handler.NewDeskHandler(engine), sessions)
	router.RegisterStaff(e, handler.NewStaffHandler(engine, gate), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Infof("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	log.Info("server stopped")
}
