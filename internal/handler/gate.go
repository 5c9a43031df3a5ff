package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"portfolio-api/internal/ids"
	"portfolio-api/internal/models"
	"portfolio-api/internal/ratelimit"
)

// ClientIP extracts the caller's address the way the edge proxy reports it:
// first X-Forwarded-For hop, then X-Real-IP, then "unknown". Requests with
// no attributable IP all share one bucket rather than bypassing the limits.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// Gate is the security middleware every API request passes through. Checks
// run cheapest-rejection-first: the IP block list, then the global request
// window, then the per-category budget.
type Gate struct {
	tracker *ids.Tracker
	limiter *ratelimit.Limiter
}

func NewGate(tracker *ids.Tracker, limiter *ratelimit.Limiter) *Gate {
	return &Gate{tracker: tracker, limiter: limiter}
}

// Limit wraps a handler with the full gate for one rate limit category.
func (g *Gate) Limit(category string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			if g.tracker.IsBlocked(ip) {
				respondWithError(w, http.StatusForbidden,
					errors.New("access denied"), "Your IP has been blocked due to suspicious activity")
				return
			}

			if allowed, score := g.tracker.TrackRequest(ip); !allowed {
				if score.RecommendedAction == models.ActionBlock {
					g.tracker.BlockIP(ip)
				}
				respondWithError(w, http.StatusTooManyRequests,
					errors.New("too many requests"), "Request rate exceeded, slow down")
				return
			}

			result := g.limiter.Consume(category, ip)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
			if !result.Allowed {
				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				g.tracker.LogEvent(models.EventRateLimitExceeded, models.SeverityMedium,
					ip, r.UserAgent(), "Rate limit exceeded for "+category)
				respondWithError(w, http.StatusTooManyRequests,
					errors.New("rate limit exceeded"), "Too many requests, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
