package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/log"
	"github.com/Alturino/foodorder/internal/otel"
)

// Logging attaches a request scoped logger and request id to the request
// context. It reuses the caller's X-Request-ID when present.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(inHttp.KEY_HEADER_REQUEST_ID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c, span := otel.Tracer.Start(
				r.Context(),
				"middleware Logging",
				trace.WithAttributes(
					attribute.String(log.KeyRequestID, requestID),
					attribute.String(log.KeyRequestHost, r.Host),
					attribute.String(log.KeyRequestIp, r.RemoteAddr),
					attribute.String(log.KeyRequestMethod, r.Method),
					attribute.String(log.KeyRequestURI, r.RequestURI),
					attribute.String(log.KeyRequestURL, r.URL.String()),
				),
			)
			defer span.End()

			requestBody := map[string]interface{}{}
			if r.Body != nil {
				var buffer bytes.Buffer
				tee := io.TeeReader(r.Body, &buffer)
				_ = json.NewDecoder(tee).Decode(&requestBody)
				_, _ = io.Copy(io.Discard, tee)
				r.Body = io.NopCloser(&buffer)
			}

			header := r.Header.Clone()
			if header.Get(inHttp.KEY_HEADER_AUTHORIZATION) != "" {
				header.Set(inHttp.KEY_HEADER_AUTHORIZATION, "****")
			}

			logger := logger.
				With().
				Str(log.KeyRequestID, requestID).
				Dict(log.KeyRequest, zerolog.Dict().
					Any(log.KeyRequestHeader, header).
					Str(log.KeyRequestHost, r.Host).
					Str(log.KeyRequestIp, r.RemoteAddr).
					Str(log.KeyRequestMethod, r.Method).
					Str(log.KeyRequestURI, r.RequestURI).
					Str(log.KeyRequestURL, r.URL.String()).
					Any(log.KeyRequestBody, requestBody)).
				Str(log.KeyTag, "middleware Logging").
				Logger()

			logger.Trace().Msg("attaching request value to context")
			c = log.AttachRequestIDToContext(c, requestID)
			c = logger.WithContext(c)
			r = r.WithContext(c)
			w.Header().Set(inHttp.KEY_HEADER_REQUEST_ID, requestID)
			logger.Trace().Msg("attached request value to context")

			next.ServeHTTP(w, r)
		})
	}
}
