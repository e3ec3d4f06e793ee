package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitdiary/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitdiary-session||"
	sessionValueSep  = "||"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	now         func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		now:         time.Now,
	}
}

func SessionKey(token string) string {
	return sessionKeyPrefix + token
}

// SessionValue is the redis value of a session: the creation time as a unix
// timestamp and the owning user id.
func SessionValue(userID string, createdAt time.Time) string {
	return strconv.FormatInt(createdAt.Unix(), 10) + sessionValueSep + userID
}

// LoggedUser looks the session up in redis and returns the user it belongs
// to. A missing or expired session is not an error.
func (c *LoginChecker) LoggedUser(ctx context.Context, token string) (_ string, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.login_checker.logged_user")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sessionValue, err := c.redisClient.Get(ctx, SessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session: %w", err)
	}

	createdAtUnixStr, userID, found := strings.Cut(sessionValue, sessionValueSep)
	if !found || userID == "" {
		return "", false, fmt.Errorf("session without user: [%s]", sessionValue)
	}

	createdAtUnix, err := strconv.ParseInt(createdAtUnixStr, 10, 64)
	if err != nil {
		return "", false, fmt.Errorf("parse session created at [%s]: %w", createdAtUnixStr, err)
	}

	createdAt := time.Unix(createdAtUnix, 0)
	if c.now().Sub(createdAt) > c.ttl {
		return "", false, nil
	}

	return userID, true, nil
}
