// @title        FarmFresh Connect API
// @version      1.0
// @description  Session and account flows for the FarmFresh Connect marketplace.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/farmfresh/connect/internal/api"
	"github.com/farmfresh/connect/internal/api/middleware"
	"github.com/farmfresh/connect/internal/core/ports"
	"github.com/farmfresh/connect/internal/core/service"
	"github.com/farmfresh/connect/internal/infrastructure/db/mongo"
	"github.com/farmfresh/connect/internal/infrastructure/db/redis"
	"github.com/farmfresh/connect/internal/infrastructure/mailer"
	"github.com/farmfresh/connect/internal/infrastructure/queue"
	"github.com/farmfresh/connect/internal/pkg/config"
	"github.com/farmfresh/connect/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "farmfresh-connect",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	backend, db, err := newBackend(ctx, cfg, rdb, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = db.Client().Disconnect(dctx)
		}()
	}

	registry := service.NewSessionRegistry(backend, redis.SlotProvider(rdb, cfg.Session.TTL), service.SessionStoreOptions{
		SessionTTL:     cfg.Session.TTL,
		ResendCooldown: cfg.Auth.ResendCooldown,
		Logger:         log,
	})
	go registry.Run(ctx, cfg.Session.SweepInterval, cfg.Session.IdleSweep)

	inbox := redis.NewNotificationInbox(rdb, cfg.Notify.InboxTTL)
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, inbox, log)
	dispatcher.Start(ctx)

	router := api.NewRouter(api.Deps{
		Sessions: registry,
		Notifier: dispatcher,
		Inbox:    inbox,
		Redis:    rdb,
		Mongo:    db,
		Cookie:   middleware.SessionOptions{Secure: cfg.Session.CookieSecure, MaxAge: cfg.Session.TTL},
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Auth.Backend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newBackend selects the authentication backend. The returned database is
// nil unless the account backend is selected.
func newBackend(ctx context.Context, cfg *config.Config, rdb *goredis.Client, log zerolog.Logger) (ports.AuthBackend, *mongodriver.Database, error) {
	if cfg.Auth.Backend == config.BackendDemo {
		log.Warn().Msg("demo authentication backend: any credentials are accepted")
		return service.NewDemoBackend(cfg.Auth.SimulatedLatency), nil, nil
	}

	repo, db, err := mongo.OpenAccounts(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, err
	}

	backend := service.NewAccountBackend(
		repo,
		redis.NewCodeStore(rdb),
		redis.NewTokenLedger(rdb),
		mailer.NewLogMailer(cfg.PublicURL+"/reset-password", log),
		service.AccountBackendConfig{
			JWTSecret: cfg.JWTSecret,
			CodeTTL:   cfg.Auth.OTPTTL,
			ResetTTL:  cfg.Auth.ResetTokenTTL,
		},
		log,
	)
	return backend, db, nil
}
