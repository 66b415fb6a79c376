package auth

import (
	"errors"
	"fmt"
	"time"

	"agri-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	FarmerID     uint              `json:"farmer_id"`
	Username     string            `json:"username"`
	Role         models.FarmerRole `json:"role"`
	TokenVersion int               `json:"token_version"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, ttl time.Duration, f *models.Farmer) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		FarmerID:     f.ID,
		Username:     f.Username,
		Role:         f.Role,
		TokenVersion: f.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(f.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
