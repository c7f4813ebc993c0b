// Package auth issues and verifies the signed tokens used for session
// authentication. Tokens are HS256 JWTs carrying the user id and role.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/tbourn/go-bootcamp-backend/internal/config"
)

// Claims is the token payload.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Sign issues a token for the user id and role using the configured secret
// and expiry.
func Sign(userID, role string, cfg config.JWTConfig) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(cfg.Expire).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// Parse validates a signed token and returns its claims. Any tampering,
// expiry, or algorithm mismatch yields an error.
func Parse(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
