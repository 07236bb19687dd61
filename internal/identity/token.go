package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long issued tokens remain valid.
const TokenTTL = 7 * 24 * time.Hour

// Claims are the JWT claims issued by the gateway on login.
type Claims struct {
	Email             string `json:"email"`
	HasElevatedRights bool   `json:"hasElevatedRights"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for the given identity.
func SignToken(secret []byte, id Identity, now time.Time) (string, error) {
	claims := Claims{
		Email:             id.Email,
		HasElevatedRights: id.HasElevatedRights,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken verifies an HS256 token and returns the identity it carries.
func ParseToken(secret []byte, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// Tokens signed with anything but HMAC are rejected outright.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}

	return Identity{
		ID:                claims.Subject,
		Email:             claims.Email,
		HasElevatedRights: claims.HasElevatedRights,
	}, nil
}
