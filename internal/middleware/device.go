package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/log"
)

// DeviceID requires the X-Device-ID header, which scopes every per session
// value (cart, delivery location, profile) to one device.
func DeviceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := strings.TrimSpace(r.Header.Get(inHttp.KEY_HEADER_DEVICE_ID))
		if deviceID == "" {
			c := r.Context()
			zerolog.Ctx(c).
				Error().
				Err(inErrors.ErrMissingDeviceID).
				Str(log.KeyTag, "middleware DeviceID").
				Msg(inErrors.ErrMissingDeviceID.Error())
			inHttp.WriteFailed(c, w, http.StatusBadRequest, inErrors.ErrMissingDeviceID)
			return
		}

		logger := zerolog.Ctx(r.Context()).With().Str(log.KeyDeviceID, deviceID).Logger()
		c := log.AttachDeviceIDToContext(r.Context(), deviceID)
		c = logger.WithContext(c)
		next.ServeHTTP(w, r.WithContext(c))
	})
}
