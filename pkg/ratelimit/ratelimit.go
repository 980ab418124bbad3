// Package ratelimit reads the rate limit headers the Infactory API sends and
// tracks the most recent window so callers can wait instead of failing.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Header names carrying rate limit state
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderRequestID = "X-Request-ID"
)

// epochThreshold separates a reset given as Unix seconds from one given as
// seconds until reset.
const epochThreshold = 1_000_000_000

// Info is the rate limit state reported by one response
type Info struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Exhausted reports whether no request is left in the window at now
func (i Info) Exhausted(now time.Time) bool {
	return i.Limit > 0 && i.Remaining <= 0 && now.Before(i.Reset)
}

// Parse extracts rate limit state from response headers. It returns false
// when the response carries no limit headers.
func Parse(h http.Header, now time.Time) (Info, bool) {
	info := Info{Timestamp: now, RequestID: h.Get(HeaderRequestID)}

	limit, okLimit := atoi(h.Get(HeaderLimit))
	remaining, okRemaining := atoi(h.Get(HeaderRemaining))
	if !okLimit && !okRemaining {
		return Info{}, false
	}
	info.Limit = limit
	info.Remaining = remaining
	info.Reset = parseReset(h.Get(HeaderReset), now)
	return info, true
}

func atoi(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseReset accepts Unix seconds, seconds until reset or a Go duration.
func parseReset(v string, now time.Time) time.Time {
	if v == "" {
		return time.Time{}
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs >= epochThreshold {
			return time.Unix(int64(secs), 0)
		}
		return now.Add(time.Duration(secs * float64(time.Second)))
	}
	if d, err := time.ParseDuration(v); err == nil {
		return now.Add(d)
	}
	return time.Time{}
}

// Tracker holds the most recent Info. It is safe for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	info Info
	seen bool
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update records info unless a newer update was already seen
func (t *Tracker) Update(info Info) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen && info.Timestamp.Before(t.info.Timestamp) {
		return
	}
	t.info = info
	t.seen = true
}

// Latest returns the most recent state, false if none was recorded
func (t *Tracker) Latest() (Info, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.info, t.seen
}

// WaitTime returns how long to wait at now before the next request can
// succeed. Zero means go ahead.
func (t *Tracker) WaitTime(now time.Time) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.seen || !t.info.Exhausted(now) {
		return 0
	}
	return t.info.Reset.Sub(now)
}

// Reset forgets the recorded state
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.info = Info{}
	t.seen = false
}
