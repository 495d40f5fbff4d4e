// Package token issues and resolves confirmation tokens. A token is an
// HS256 JWT binding a subscriber id to an expiry; nothing else about the
// subscriber is encoded, so resolving a bad token reveals nothing about
// whether the subscriber exists.
package token

import (
	"time"

	"listkeeper/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Issue creates a confirmation token for a subscriber.
func (s *Service) Issue(subscriberID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub_id": subscriberID,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(s.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Resolve validates a token and extracts the subscriber id. Every failure
// mode collapses to apperr.ErrInvalidToken.
func (s *Service) Resolve(tokenStr string) (int64, error) {
	t, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return 0, apperr.ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.ErrInvalidToken
	}
	idFloat, ok := claims["sub_id"].(float64)
	if !ok {
		return 0, apperr.ErrInvalidToken
	}
	return int64(idFloat), nil
}
