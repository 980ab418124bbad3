package http

import (
	"math/rand/v2"
	"time"
)

// BackoffConfig configures exponential backoff behavior
type BackoffConfig struct {
	BaseDelay   time.Duration // Delay before the first retry
	MaxDelay    time.Duration // Maximum delay cap
	Multiplier  float64       // Growth factor per attempt (typically 2.0)
	MaxAttempts int           // Maximum number of retry attempts
	Jitter      float64       // Fraction of the delay randomized, 0 to 1
}

// DefaultBackoffConfig returns the retry schedule used by NewHTTPClient
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		MaxAttempts: 3,
	}
}

// CalculateBackoff returns the delay before retry number attempt (1-indexed):
// BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func CalculateBackoff(config BackoffConfig, attempt int) time.Duration {
	if attempt <= 1 {
		return withJitter(config.BaseDelay, config.Jitter)
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}

	delay := float64(config.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= config.Multiplier
		if config.MaxDelay > 0 && delay >= float64(config.MaxDelay) {
			return withJitter(config.MaxDelay, config.Jitter)
		}
	}
	return withJitter(time.Duration(delay), config.Jitter)
}

func withJitter(d time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || d <= 0 {
		return d
	}
	if jitter > 1 {
		jitter = 1
	}
	spread := float64(d) * jitter
	return time.Duration(float64(d) - spread + rand.Float64()*spread) // #nosec G404 -- retry jitter
}
