package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

// TokenService issues and validates the HS256 access tokens shared by the
// admin and guide login flows.
type TokenService struct {
	cfg config.JWTConfig
}

// NewTokenService constructs TokenService.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	if cfg.Expiration == 0 {
		cfg.Expiration = 168 * time.Hour
	}
	return &TokenService{cfg: cfg}
}

// Issue signs a token for the given actor.
func (s *TokenService) Issue(actorID string, role models.Role, email string) (string, time.Time, error) {
	now := time.Now()
	claims := models.JWTClaims{
		ActorID: actorID,
		Role:    role,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, now, nil
}

// Expiration reports the configured token lifetime.
func (s *TokenService) Expiration() time.Duration {
	return s.cfg.Expiration
}

// Validate parses and verifies a token, returning its claims.
func (s *TokenService) Validate(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
