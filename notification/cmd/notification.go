package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/foodorder/internal/config"
	"github.com/Alturino/foodorder/internal/constants"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/infra"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/middleware"
	inOtel "github.com/Alturino/foodorder/internal/otel"
	"github.com/Alturino/foodorder/internal/pubsub"
	"github.com/Alturino/foodorder/notification/internal/otel"
	"github.com/Alturino/foodorder/notification/internal/worker"
)

const queueSize = 256

func RunNotificationService(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunNotificationService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_NOTIFICATION_SERVICE).
		Str(log.KeyTag, "main RunNotificationService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.APP_NOTIFICATION_SERVICE)
	logger.Info().Msg("initialized config")

	logger = log.Get(cfg.Application.LogPath, cfg.Application.Env).
		With().
		Str(log.KeyAppName, constants.APP_NOTIFICATION_SERVICE).
		Str(log.KeyTag, "main RunNotificationService").
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	shutdownFuncs, err := inOtel.InitOtelSdk(c, constants.APP_NOTIFICATION_SERVICE, cfg.Otel)
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

	logger = logger.With().Str(log.KeyProcess, "starting notification worker").Logger()
	logger.Info().Msg("starting notification worker")
	workerCtx, stopWorker := context.WithCancel(logger.WithContext(c))
	wrk := worker.NewNotificationWorker(worker.LogSink{}, worker.DefaultFlushInterval, queueSize)
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go wrk.StartWorker(workerCtx, wg)
	defer func() {
		stopWorker()
		wg.Wait()
	}()
	logger.Info().Msg("started notification worker")

	logger = logger.With().Str(log.KeyProcess, "subscribing to order topics").Logger()
	logger.Info().Msg("subscribing to order topics")
	subscriber := pubsub.NewRedis(cache, 0)
	for _, topic := range []string{pubsub.TopicOrderCreated, pubsub.TopicOrderStatus} {
		unsubscribe, err := subscriber.Subscribe(workerCtx, topic, wrk.Enqueue)
		if err != nil {
			err = fmt.Errorf("failed subscribing to topic=%s with error=%w", topic, err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		defer func() {
			if err := unsubscribe(); err != nil {
				logger.Error().Err(err).Msgf("failed unsubscribing from topic=%s with error=%s", topic, err.Error())
			}
		}()
	}
	logger.Info().Msg("subscribed to order topics")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.APP_NOTIFICATION_SERVICE),
		middleware.Logging(logger),
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	logger.Info().Msg("initialized router")

	inHttp.Serve(c, logger, cfg.Application, router)
}
