package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/foodorder/internal/config"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/otel"
)

const cachePingTimeout = 5 * time.Second

// NewCacheClient opens an instrumented redis client and checks it answers.
// The caller owns the client and decides whether a failure stops the process.
func NewCacheClient(c context.Context, cfg config.Cache) (*redis.Client, error) {
	c, span := otel.Tracer.Start(c, "infra NewCacheClient")
	defer span.End()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "infra NewCacheClient").
		Str(log.KeyProcess, "connecting to redis").
		Str("addr", addr).
		Logger()

	logger.Info().Msg("connecting to redis")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := redisotel.InstrumentTracing(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed instrumenting redis tracing with error=%w", err)
	}
	if err := redisotel.InstrumentMetrics(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed instrumenting redis metrics with error=%w", err)
	}

	pingCtx, cancel := context.WithTimeout(c, cachePingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed pinging redis at %s with error=%w", addr, err)
	}
	logger.Info().Msg("connected to redis")
	return client, nil
}
