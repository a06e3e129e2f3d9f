package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func GenerateJWT(userID, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret key is not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(ttl).Unix(),
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseJWT(tokenString, secret string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret key is not set")
	}
	tokenString = TrimBearer(tokenString)

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if token == nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if err := claims.Valid(); err != nil {
		return nil, fmt.Errorf("token claims invalid: %w", err)
	}

	return claims, nil
}

func TrimBearer(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "Bearer "))
}
