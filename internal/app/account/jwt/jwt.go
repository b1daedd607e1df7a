package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AccessClaims struct {
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenService signs and verifies the two token kinds. Access and refresh
// tokens use distinct secrets, so one kind never validates as the other.
type TokenService interface {
	GenerateAccessToken(userID uuid.UUID) (token string, exp time.Time, err error)
	GenerateRefreshToken(userID uuid.UUID) (token string, exp time.Time, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)
}
