package log

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type (
	requestId struct{}
	deviceId  struct{}
)

func RequestIDFromContext(c context.Context) string {
	id, _ := c.Value(requestId{}).(string)
	return id
}

func AttachRequestIDToContext(c context.Context, h string) context.Context {
	return context.WithValue(c, requestId{}, h)
}

func DeviceIDFromContext(c context.Context) string {
	id, _ := c.Value(deviceId{}).(string)
	return id
}

func AttachDeviceIDToContext(c context.Context, id string) context.Context {
	return context.WithValue(c, deviceId{}, id)
}

// AttachTraceIdFromContext enriches every event logged with a context
// (zerolog.Event.Ctx) with the request id and the active span ids.
func AttachTraceIdFromContext() zerolog.HookFunc {
	return func(e *zerolog.Event, level zerolog.Level, message string) {
		c := e.GetCtx()
		if c == nil {
			return
		}

		if reqId := RequestIDFromContext(c); reqId != "" {
			e.Str(KeyRequestID, reqId)
		}
		if devId := DeviceIDFromContext(c); devId != "" {
			e.Str(KeyDeviceID, devId)
		}

		spanCtx := trace.SpanContextFromContext(c)
		if spanCtx.IsValid() {
			e.Str(KeyTraceID, spanCtx.TraceID().String()).
				Str(KeySpanID, spanCtx.SpanID().String())
		}
	}
}
