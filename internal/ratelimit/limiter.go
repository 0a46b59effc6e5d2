package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter is a fixed-window per-key counter on Redis, used to slow down
// password guessing on the login route. A nil limiter allows everything.
type Limiter struct {
	c      *redis.Client
	perMin int
}

func New(c *redis.Client, perMin int) *Limiter {
	return &Limiter{c: c, perMin: perMin}
}

// Allow reports whether key may proceed within the current one-minute
// window. Limiter outages fail open: an unreachable Redis must not lock
// every user out.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.c == nil || l.perMin <= 0 {
		return true
	}
	window := time.Now().Unix() / 60
	k := fmt.Sprintf("rl:login:%s:%d", key, window)
	n, err := l.c.Incr(ctx, k).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		l.c.Expire(ctx, k, time.Minute)
	}
	return n <= int64(l.perMin)
}
