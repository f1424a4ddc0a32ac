package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "usergroups/internal/domain/errors"
)

const tokenSubject = "api access"

// TokenClaims carries the authenticated user's id plus the registered claims.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Config holds the signing settings resolved once at startup.
type Config struct {
	SigningKey    string
	TokenTTL      time.Duration
	SigningMethod jwt.SigningMethod
}

func NewConfig(signingKey string, tokenTTL time.Duration) *Config {
	return &Config{
		SigningKey:    signingKey,
		TokenTTL:      tokenTTL,
		SigningMethod: jwt.SigningMethodHS256,
	}
}

// JWTManager issues and verifies the service's bearer tokens.
type JWTManager struct {
	config *Config
}

func NewJWTManager(config *Config) *JWTManager {
	return &JWTManager{config: config}
}

func (m *JWTManager) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tokenSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(m.config.SigningMethod, claims)
	return token.SignedString([]byte(m.config.SigningKey))
}

// ParseToken verifies the signature and expiry and returns the decoded
// claims. Any verification failure is reported as ErrFailedToken.
func (m *JWTManager) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.SigningKey), nil
	})
	if err != nil {
		return nil, apperrors.ErrFailedToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrFailedToken
	}
	return claims, nil
}
