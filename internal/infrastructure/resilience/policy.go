package resilience

import "time"

// StepPolicy is the per-operation retry contract. Most pipeline steps are
// fail-fast (Retryable=false); recognition is the deliberate exception.
type StepPolicy struct {
	Retryable      bool
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// FailFast runs the operation exactly once.
func FailFast() StepPolicy {
	return StepPolicy{Retryable: false, MaxAttempts: 1}
}

// ExponentialRetry waits initial, initial*multiplier, ... between failed
// attempts, uncapped below initial<<maxAttempts.
func ExponentialRetry(maxAttempts int, initial time.Duration, multiplier float64) StepPolicy {
	return StepPolicy{
		Retryable:      true,
		MaxAttempts:    maxAttempts,
		InitialBackoff: initial,
		MaxBackoff:     initial << uint(maxAttempts),
		Multiplier:     multiplier,
	}
}

func (p StepPolicy) normalize() StepPolicy {
	out := p
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 1
	}
	if !out.Retryable {
		out.MaxAttempts = 1
		return out
	}
	if out.InitialBackoff <= 0 {
		out.InitialBackoff = time.Second
	}
	if out.MaxBackoff < out.InitialBackoff {
		out.MaxBackoff = out.InitialBackoff
	}
	if out.Multiplier < 1.0 {
		out.Multiplier = 2.0
	}
	return out
}

// BreakerConfig tunes the per-operation circuit breakers.
type BreakerConfig struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MinRequests:      10,
		FailureRatio:     0.5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

func (c BreakerConfig) normalize() BreakerConfig {
	out := c
	def := DefaultBreakerConfig()

	if out.MinRequests == 0 {
		out.MinRequests = def.MinRequests
	}
	if out.FailureRatio <= 0 || out.FailureRatio > 1 {
		out.FailureRatio = def.FailureRatio
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = def.OpenTimeout
	}
	if out.HalfOpenMaxCalls == 0 {
		out.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return out
}
