package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Usage headers reported by the Graph API.
const (
	HeaderBusinessUseCaseUsage = "X-Business-Use-Case-Usage"
	HeaderAppUsage             = "X-App-Usage"
)

// Usage is the rate-limit usage reported in response headers
type Usage struct {
	CallCount                   int `json:"call_count"`
	TotalCPUTime                int `json:"total_cputime"`
	TotalTime                   int `json:"total_time"`
	EstimatedTimeToRegainAccess int `json:"estimated_time_to_regain_access"`
}

// Max returns the highest of the usage percentages
func (u Usage) Max() int {
	return max(u.CallCount, u.TotalCPUTime, u.TotalTime)
}

// RegainAccess returns the estimated throttle duration
func (u Usage) RegainAccess() time.Duration {
	return time.Duration(u.EstimatedTimeToRegainAccess) * time.Minute
}

func (u Usage) merge(o Usage) Usage {
	return Usage{
		CallCount:                   max(u.CallCount, o.CallCount),
		TotalCPUTime:                max(u.TotalCPUTime, o.TotalCPUTime),
		TotalTime:                   max(u.TotalTime, o.TotalTime),
		EstimatedTimeToRegainAccess: max(u.EstimatedTimeToRegainAccess, o.EstimatedTimeToRegainAccess),
	}
}

// ParseUsage merges every usage entry found in the response headers.
// Malformed headers are ignored.
func ParseUsage(h http.Header) Usage {
	var usage Usage

	if raw := h.Get(HeaderBusinessUseCaseUsage); raw != "" {
		var byBusiness map[string][]Usage
		if err := json.Unmarshal([]byte(raw), &byBusiness); err == nil {
			for _, entries := range byBusiness {
				for _, entry := range entries {
					usage = usage.merge(entry)
				}
			}
		}
	}

	if raw := h.Get(HeaderAppUsage); raw != "" {
		var app Usage
		if err := json.Unmarshal([]byte(raw), &app); err == nil {
			usage = usage.merge(app)
		}
	}

	return usage
}

// Limiter paces requests per bucket and tracks server-imposed throttles
type Limiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*rate.Limiter
	throttled map[string]time.Time
	now       func() time.Time
}

// NewLimiter creates a limiter allowing perSecond requests per bucket.
// A perSecond <= 0 disables pacing; throttles are still tracked.
func NewLimiter(perSecond float64, burst int) *Limiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limit:     limit,
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
		throttled: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Wait blocks until the bucket may send, or fails fast while it is throttled
func (l *Limiter) Wait(ctx context.Context, bucket string) error {
	l.mu.Lock()
	if end, ok := l.throttled[bucket]; ok {
		if l.now().Before(end) {
			l.mu.Unlock()
			return &RateLimitError{Bucket: bucket, ThrottleEnd: end}
		}
		delete(l.throttled, bucket)
	}

	limiter, ok := l.limiters[bucket]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[bucket] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}

// Throttle blocks the bucket for d (one minute when d is not positive)
func (l *Limiter) Throttle(bucket string, d time.Duration) *RateLimitError {
	if d <= 0 {
		d = time.Minute
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	end := l.now().Add(d)
	if current, ok := l.throttled[bucket]; ok && current.After(end) {
		end = current
	}
	l.throttled[bucket] = end

	return &RateLimitError{Bucket: bucket, ThrottleEnd: end}
}

// ThrottleEnd returns when the bucket's throttle ends, if it is throttled
func (l *Limiter) ThrottleEnd(bucket string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	end, ok := l.throttled[bucket]
	if !ok || !l.now().Before(end) {
		return time.Time{}, false
	}
	return end, true
}
