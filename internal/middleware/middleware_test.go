package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/foodorder/internal/auth"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/log"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestDeviceID(t *testing.T) {
	var got string
	handler := DeviceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = log.DeviceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, inHttp.STATUS_FAILED, decodeEnvelope(t, rec)["status"])
	})

	t.Run("present header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(inHttp.KEY_HEADER_DEVICE_ID, "device-1")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "device-1", got)
	})
}

func TestAuth(t *testing.T) {
	const secret = "middleware-secret"
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := auth.GenerateAdminToken(secret, "ops", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		wantCode      int
	}{
		{name: "missing", wantCode: http.StatusUnauthorized},
		{name: "no scheme", authorization: token, wantCode: http.StatusUnauthorized},
		{name: "invalid token", authorization: "Bearer abc.def.ghi", wantCode: http.StatusUnauthorized},
		{name: "valid", authorization: "Bearer " + token, wantCode: http.StatusNoContent},
		{name: "lowercase scheme", authorization: "bearer " + token, wantCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/orders/1/status", nil)
			if tt.authorization != "" {
				req.Header.Set(inHttp.KEY_HEADER_AUTHORIZATION, tt.authorization)
			}
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestLoggingKeepsBodyAndSetsRequestID(t *testing.T) {
	var body string
	var requestID string
	handler := Logging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := new(strings.Builder)
		_, _ = b.ReadFrom(r.Body)
		body = b.String()
		requestID = log.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":"p1"}`))
	req.Header.Set(inHttp.KEY_HEADER_REQUEST_ID, "req-1")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, `{"productId":"p1"}`, body)
	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "req-1", rec.Header().Get(inHttp.KEY_HEADER_REQUEST_ID))
}

func TestRecoverPanic(t *testing.T) {
	handler := RecoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
