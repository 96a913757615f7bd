// Package auth issues and verifies the bearer tokens of the back office that
// moves orders through their status timeline.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/foodorder/internal/constants"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	"github.com/Alturino/foodorder/internal/log"
)

func GenerateAdminToken(secret string, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", inErrors.ErrEmptySubject
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    constants.APP_ORDER_SERVICE,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{constants.AUDIENCE_ADMIN},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed signing token with error=%w", err)
	}
	return signed, nil
}

// VerifyAdminToken returns the subject of a valid admin token.
func VerifyAdminToken(c context.Context, secret string, token string) (string, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyAdminToken").
		Logger()

	claims := &jwt.RegisteredClaims{}

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	jwtToken, err := jwt.ParseWithClaims(token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithAudience(constants.AUDIENCE_ADMIN),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.APP_ORDER_SERVICE),
	)
	if err != nil {
		err = fmt.Errorf("%w: failed parsing with claims with error=%w", inErrors.ErrTokenInvalid, err)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "validating token").Logger()
	if !jwtToken.Valid {
		logger.Error().Err(inErrors.ErrTokenInvalid).Msg(inErrors.ErrTokenInvalid.Error())
		return "", inErrors.ErrTokenInvalid
	}
	if claims.Subject == "" {
		logger.Error().Err(inErrors.ErrEmptySubject).Msg(inErrors.ErrEmptySubject.Error())
		return "", inErrors.ErrEmptySubject
	}
	logger.Trace().Msg("validated token")

	return claims.Subject, nil
}
