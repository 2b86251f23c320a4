package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"police-dispatch-system/pkg/response"

	"github.com/apex/log"
	"github.com/redis/go-redis/v9"
)

// Counter is the subset of *redis.Client used by RateLimit.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimit allows at most limit requests per client IP within window. The
// window starts at the first request and is tracked by the key's TTL.
// trustedHops is the number of reverse proxies in front of the service; with
// zero, X-Forwarded-For is ignored.
func RateLimit(counter Counter, prefix string, limit int, window time.Duration, trustedHops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := prefix + ":" + clientIP(r, trustedHops)

			count, err := counter.Incr(ctx, key).Result()
			if err != nil {
				// fail open: the limiter must not take login down with it
				log.WithError(err).Warn("Rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				if err := counter.Expire(ctx, key, window).Err(); err != nil {
					log.WithError(err).Warn("Failed to set rate limit window")
				}
			}

			if count > int64(limit) {
				retryAfter, err := counter.TTL(ctx, key).Result()
				// A negative TTL means the key has no expiry, so the first
				// Expire was lost. Re-arm it or the client stays blocked.
				if err == nil && retryAfter < 0 {
					if err := counter.Expire(ctx, key, window).Err(); err != nil {
						log.WithError(err).WithField("key", key).Warn("Failed to re-arm rate limit window")
					}
					retryAfter = window
				}
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				}
				response.Error(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys on the peer address. Each trusted proxy appends the address it
// saw to X-Forwarded-For, so the client is the entry trustedHops places from
// the right; anything further left was supplied by the client.
func clientIP(r *http.Request, trustedHops int) string {
	if trustedHops > 0 {
		var hops []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			for _, h := range strings.Split(v, ",") {
				if h = strings.TrimSpace(h); h != "" {
					hops = append(hops, h)
				}
			}
		}
		if len(hops) > 0 {
			i := len(hops) - trustedHops
			if i < 0 {
				i = 0
			}
			if ip := net.ParseIP(hops[i]); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
