package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/foodorder/cart/internal/controller"
	cartOtel "github.com/Alturino/foodorder/cart/internal/otel"
	"github.com/Alturino/foodorder/cart/internal/service"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
	"github.com/Alturino/foodorder/internal/config"
	"github.com/Alturino/foodorder/internal/constants"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/infra"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/middleware"
	"github.com/Alturino/foodorder/internal/otel"
)

func RunCartService(c context.Context) {
	c, span := cartOtel.Tracer.Start(c, "RunCartService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_CART_SERVICE).
		Str(log.KeyTag, "main RunCartService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.APP_CART_SERVICE)
	logger.Info().Msg("initialized config")

	logger = log.Get(cfg.Application.LogPath, cfg.Application.Env).
		With().
		Str(log.KeyAppName, constants.APP_CART_SERVICE).
		Str(log.KeyTag, "main RunCartService").
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	otelShutdowns, err := otel.InitOtelSdk(c, constants.APP_CART_SERVICE, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		if err := otel.ShutdownOtel(logger.WithContext(context.Background()), otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing session store").Logger()
	logger.Info().Msgf("initializing session store driver=%s", cfg.Storage.Driver)
	c = logger.WithContext(c)
	store, closeStore, err := infra.NewSessionStore(c, cfg)
	if err != nil {
		err = fmt.Errorf("failed initializing session store with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer closeStore()
	logger.Info().Msg("initialized session store")

	logger = logger.With().Str(log.KeyProcess, "initializing cart service").Logger()
	logger.Info().Msg("initializing cart service")
	directory := location.NewDirectory(cfg.Delivery.Districts)
	cartService := service.NewCartService(store, directory, pricing.NewFeeSchedule(cfg.Pricing))
	logger.Info().Msg("initialized cart service")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.APP_CART_SERVICE),
		middleware.Logging(logger),
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	controller.AttachCartController(router, &cartService)
	controller.AttachLocationController(router, &cartService)
	logger.Info().Msg("initialized router")

	inHttp.Serve(c, logger, cfg.Application, router)
}
