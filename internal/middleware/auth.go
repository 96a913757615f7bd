package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/foodorder/internal/auth"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/log"
)

// Auth only lets through requests carrying a valid admin bearer token.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware Auth").Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get(inHttp.KEY_HEADER_AUTHORIZATION)
			if len(authorization) <= len("bearer ") ||
				!strings.EqualFold(authorization[:len("bearer ")], "bearer ") {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrEmptyAuth)
				return
			}

			token := authorization[len("bearer "):]
			subject, err := auth.VerifyAdminToken(c, secret, token)
			if err != nil {
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid)
				return
			}
			logger.Debug().Str("subject", subject).Msg("authorized admin")

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
