// Package jwtauth issues and validates the bearer tokens that identify
// registry callers. The registry itself has no user management; the
// presentation layer obtains a token out of band and presents it on every
// mutating call.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
)

const (
	issuer   = "fiscus"
	audience = "fiscus-registry"
)

// Service handles JWT creation and validation with an HMAC signing key.
type Service struct {
	signingKey []byte
}

func New(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey)}
}

// GenerateToken mints a token whose subject is the caller identity.
func (s *Service) GenerateToken(caller domain.Caller, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   caller.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		Audience:  []string{audience},
		ID:        uuid.NewString(),
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken checks signature, expiry, issuer, and audience, and returns
// the caller the token identifies.
func (s *Service) ValidateToken(tokenString string) (domain.Caller, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "token expired")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token missing subject")
	}
	return domain.Caller(claims.Subject), nil
}
