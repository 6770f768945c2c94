package llm

import (
	"time"

	"golang.org/x/time/rate"
)

const defaultRequestsPerMinute = 60

// newRateLimiter allows requestsPerMinute provider calls per minute, starting with a
// full burst of the same size.
func newRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}
