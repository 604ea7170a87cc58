// @title                       Courier System API
// @version                     1.0
// @description                 Parcel requests, receiver approval, courier operations and public tracking.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/parceldesk/courier-system/docs"
	"github.com/parceldesk/courier-system/internal/api"
	"github.com/parceldesk/courier-system/internal/api/handler"
	"github.com/parceldesk/courier-system/internal/core/ports"
	"github.com/parceldesk/courier-system/internal/core/service"
	"github.com/parceldesk/courier-system/internal/infrastructure/broker/rabbitmq"
	mongodb "github.com/parceldesk/courier-system/internal/infrastructure/db/mongo"
	redisdb "github.com/parceldesk/courier-system/internal/infrastructure/db/redis"
	"github.com/parceldesk/courier-system/internal/infrastructure/queue"
	"github.com/parceldesk/courier-system/internal/pkg/config"
	"github.com/parceldesk/courier-system/pkg/logger"
)

const (
	serviceName     = "courier-system"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     serviceName,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		Timeout:     cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	parcelRepo := mongodb.NewParcelRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	if err := parcelRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	healthChecks := []handler.DependencyCheck{handler.MongoCheck(db)}

	var (
		cache         ports.TrackingCache
		lifecycleOpts []service.LifecycleOption
	)
	if cfg.Redis.Enabled {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		cache = redisdb.NewTrackingCache(rdb, cfg.Redis.TrackingCacheTTL, log)
		lifecycleOpts = append(lifecycleOpts,
			service.WithTrackingCache(cache),
			service.WithIdempotency(redisdb.NewIdempotencyStore(rdb), cfg.Redis.IdempotencyTTL),
		)
		healthChecks = append(healthChecks, handler.RedisCheck(rdb))
	} else {
		log.Warn().Msg("redis disabled: tracking cache and idempotency keys are off")
	}

	// --- Events ---
	var publisher ports.EventPublisher = queue.NewLogPublisher(log)
	if cfg.AMQP.URL != "" {
		rp, err := rabbitmq.NewPublisher(rabbitmq.Config{URL: cfg.AMQP.URL, Exchange: cfg.AMQP.Exchange}, log)
		if err != nil {
			return err
		}
		defer rp.Close()
		publisher = rp
	}

	dispatcher := queue.NewDispatcher(cfg.AMQP.Workers, publisher, log)
	dispatcher.Start(context.Background())
	defer dispatcher.Close()
	lifecycleOpts = append(lifecycleOpts, service.WithEvents(dispatcher))

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, log)
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return err
	}

	receivers := service.NewReceiverValidator(userRepo, service.ParseReceiverPolicy(cfg.Parcel.ReceiverPolicy))
	fees := service.NewFeeCalculator(cfg.Parcel.BaseFee, cfg.Parcel.PerKgFee)
	parcelService := service.NewLifecycleService(parcelRepo, receivers, fees, log, lifecycleOpts...)
	queryService := service.NewQueryService(parcelRepo, userRepo, cache, log)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Log:          log,
		JWTSecret:    cfg.JWTSecret,
		Auth:         authService,
		Parcels:      parcelService,
		Queries:      queryService,
		HealthChecks: healthChecks,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
