package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
	"github.com/Alturino/foodorder/internal/config"
	"github.com/Alturino/foodorder/internal/constants"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/infra"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/middleware"
	inOtel "github.com/Alturino/foodorder/internal/otel"
	"github.com/Alturino/foodorder/internal/pubsub"
	"github.com/Alturino/foodorder/order/internal/controller"
	"github.com/Alturino/foodorder/order/internal/otel"
	"github.com/Alturino/foodorder/order/internal/repository"
	"github.com/Alturino/foodorder/order/internal/service"
)

const publishBreakerTimeout = 30 * time.Second

func RunOrderService(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunOrderService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_ORDER_SERVICE).
		Str(log.KeyTag, "main RunOrderService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.APP_ORDER_SERVICE)
	logger.Info().Msg("initialized config")

	logger = log.Get(cfg.Application.LogPath, cfg.Application.Env).
		With().
		Str(log.KeyAppName, constants.APP_ORDER_SERVICE).
		Str(log.KeyTag, "main RunOrderService").
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	shutdownFuncs, err := inOtel.InitOtelSdk(c, constants.APP_ORDER_SERVICE, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		if err := inOtel.ShutdownOtel(logger.WithContext(context.Background()), shutdownFuncs); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	db := infra.NewDatabaseClient(c, cfg.Database)
	defer db.Close()
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	cache, err := infra.NewCacheClient(c, cfg.Cache)
	if err != nil {
		err = fmt.Errorf("failed initializing cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error().Err(err).Msgf("failed closing cache with error=%s", err.Error())
		}
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing session store").Logger()
	logger.Info().Msgf("initializing session store driver=%s", cfg.Storage.Driver)
	sessions, closeSessions, err := infra.NewSessionStore(c, cfg)
	if err != nil {
		err = fmt.Errorf("failed initializing session store with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer closeSessions()
	logger.Info().Msg("initialized session store")

	logger = logger.With().Str(log.KeyProcess, "initializing order service").Logger()
	logger.Info().Msg("initializing order service")
	orderService := service.NewOrderService(
		repository.New(db),
		sessions,
		cache,
		pubsub.NewRedis(cache, publishBreakerTimeout),
		service.Config{
			Fees:         pricing.NewFeeSchedule(cfg.Pricing),
			Directory:    location.NewDirectory(cfg.Delivery.Districts),
			HandoffPhone: cfg.Application.HandoffPhone,
		},
	)
	logger.Info().Msg("initialized order service")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.APP_ORDER_SERVICE),
		middleware.Logging(logger),
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	controller.AttachOrderController(router, orderService, cfg.Application.SecretKey)
	logger.Info().Msg("initialized router")

	inHttp.Serve(c, logger, cfg.Application, router)
}
