package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var ctx = context.Background()

// SessionManager is the authoritative login-session store. A session exists
// only while its Redis record does; deleting the record logs the user out
// regardless of any cookie still held by the browser.
type SessionManager struct {
	rdb *redis.Client
}

func NewSessionManager(rdb *redis.Client) *SessionManager {
	return &SessionManager{rdb: rdb}
}

// Save records an active session for the user.
func (s *SessionManager) Save(sid string, userID uint64, ttl time.Duration) error {
	key := fmt.Sprintf("pb:sess:%s", sid)
	return s.rdb.Set(ctx, key, strconv.FormatUint(userID, 10), ttl).Err()
}

// Get resolves a session id to the user it belongs to.
// Returns redis.Nil when the session does not exist or has expired.
func (s *SessionManager) Get(sid string) (uint64, error) {
	key := fmt.Sprintf("pb:sess:%s", sid)
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(val, 10, 64)
}

// Delete destroys a session. Deleting a session that does not exist is a
// no-op, which keeps logout idempotent.
func (s *SessionManager) Delete(sid string) error {
	key := fmt.Sprintf("pb:sess:%s", sid)
	return s.rdb.Del(ctx, key).Err()
}
