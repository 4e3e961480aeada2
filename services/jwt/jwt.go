package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
)

const AccessTokenValidity = 24 * time.Hour

// GenerateToken signs an HS256 access token carrying the user id under "id".
func GenerateToken(userID uint, secret string, validity time.Duration) (string, error) {
	if validity <= 0 {
		validity = AccessTokenValidity
	}
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(validity).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

func isJWTSecretEmpty(secret string) bool {
	return secret == ""
}

// ValidateAndGetClaims checks the signature and expiry of tokenString and
// returns its claims.
func ValidateAndGetClaims(tokenString string, secret string) (jwt.MapClaims, error) {
	if isJWTSecretEmpty(secret) {
		return nil, errors.New("jwt secret is empty")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// UserIDFromClaims reads the numeric "id" claim.
func UserIDFromClaims(claims jwt.MapClaims) (uint, error) {
	switch v := claims["id"].(type) {
	case float64:
		if v <= 0 {
			return 0, errors.New("invalid user id claim")
		}
		return uint(v), nil
	default:
		return 0, errors.New("missing user id claim")
	}
}
