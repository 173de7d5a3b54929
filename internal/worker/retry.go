package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how often a failed Sheets task is retried and how long
// the worker waits between attempts.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy is used for every zero field of a configured policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxRetries <= 0 {
		p.MaxRetries = def.MaxRetries
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = def.BackoffFactor
	}
	return p
}

// Exhausted reports whether attempt (1-based) is the last one allowed.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= p.withDefaults().MaxRetries
}

// Delay is the wait before retrying after the given failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	attempt = max(attempt, 1)

	scaled := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if scaled >= float64(p.MaxDelay) || math.IsInf(scaled, 1) {
		return p.MaxDelay
	}
	return time.Duration(scaled)
}
