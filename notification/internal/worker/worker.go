package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/foodorder/internal/constants"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/metric"
	"github.com/Alturino/foodorder/internal/pubsub"
	"github.com/Alturino/foodorder/notification/internal/otel"
)

const (
	DefaultFlushInterval = 300 * time.Millisecond
	defaultBatchSize     = 50
)

type NotificationWorker struct {
	sink     Sink
	queue    chan pubsub.Message
	interval time.Duration
}

func NewNotificationWorker(sink Sink, interval time.Duration, buffer int) *NotificationWorker {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &NotificationWorker{
		sink:     sink,
		queue:    make(chan pubsub.Message, buffer),
		interval: interval,
	}
}

// Enqueue is the pubsub.Handler feeding the worker. It blocks while the queue
// is full unless c is done.
func (wrk *NotificationWorker) Enqueue(c context.Context, msg pubsub.Message) {
	select {
	case wrk.queue <- msg:
	case <-c.Done():
		zerolog.Ctx(c).
			Warn().
			Str(log.KeyTopic, msg.Topic).
			Msg("dropping event, worker is shutting down")
	}
}

// StartWorker collects queued events and sends them every interval. Pending
// events are flushed before it returns on cancellation.
func (wrk *NotificationWorker) StartWorker(c context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "NotificationWorker StartWorker").
		Str(log.KeyProcess, "starting worker").
		Str(log.KeyAppName, constants.APP_NOTIFICATION_WORKER).
		Logger()
	logger.Info().Msg("started worker")

	tick := time.NewTicker(wrk.interval)
	defer tick.Stop()
	batch := make([]pubsub.Message, 0, defaultBatchSize)

	for {
		select {
		case <-c.Done():
		drain:
			for {
				select {
				case msg := <-wrk.queue:
					batch = append(batch, msg)
				default:
					break drain
				}
			}
			wrk.flush(logger.WithContext(context.WithoutCancel(c)), batch)
			logger.Info().Msg("stopped worker")
			return
		case <-tick.C:
			if len(batch) == 0 {
				continue
			}
			wrk.flush(logger.WithContext(c), batch)
			batch = batch[:0]
		case msg := <-wrk.queue:
			logger.Debug().Str(log.KeyTopic, msg.Topic).Msg("received event")
			batch = append(batch, msg)
			if len(batch) >= defaultBatchSize {
				wrk.flush(logger.WithContext(c), batch)
				batch = batch[:0]
			}
		}
	}
}

func (wrk *NotificationWorker) flush(c context.Context, batch []pubsub.Message) {
	if len(batch) == 0 {
		return
	}
	requestID := uuid.NewString()
	c, span := otel.Tracer.Start(c, "NotificationWorker flush")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyRequestID, requestID).
		Str(log.KeyProcess, "sending notifications").
		Logger()
	c = log.AttachRequestIDToContext(logger.WithContext(c), requestID)

	logger.Info().Msgf("sending %d notifications", len(batch))
	sent := 0
	for _, msg := range batch {
		n, err := Render(msg)
		if err != nil {
			err = fmt.Errorf("failed rendering notification with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			continue
		}
		if err := wrk.sink.Send(c, n); err != nil {
			err = fmt.Errorf("failed sending notification with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			continue
		}
		metric.NotificationsSent.WithLabelValues(msg.Topic).Inc()
		sent++
	}
	logger.Info().Msgf("sent %d notifications", sent)
}
