package auth

import (
	"errors"
	"time"

	"pinboard/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of the session cookie token. The token alone
// never authenticates a request: the session id must still resolve in Redis,
// which is what makes logout take effect immediately.
type SessionClaims struct {
	UserID    uint64 `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionToken issues a signed session token for the user with a fresh
// session id. The token expires together with the Redis record.
func NewSessionToken(userID uint64) (token string, sid string, err error) {
	now := time.Now()
	sid = uuid.NewString()
	claims := SessionClaims{
		UserID:    userID,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(config.GlobalConfig.Session.TTL) * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.GlobalConfig.Session.Secret))
	if err != nil {
		return "", "", err
	}
	return token, sid, nil
}

// ParseSessionToken validates signature and expiry of a session cookie value.
func ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.GlobalConfig.Session.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
