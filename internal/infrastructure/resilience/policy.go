package resilience

import "time"

type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	BreakerEnabled     bool
	BreakerMinCalls    uint32
	BreakerFailureRate float64
	BreakerCooldown    time.Duration
	BreakerProbeCalls  uint32
}

// DefaultConfig is tuned for calls against external stores and the
// embedding service: a few short retries, then back off and let the
// snapshot fallback take over.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   4,
		InitialDelay:  250 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,

		BreakerEnabled:     true,
		BreakerMinCalls:    8,
		BreakerFailureRate: 0.6,
		BreakerCooldown:    20 * time.Second,
		BreakerProbeCalls:  2,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.MaxAttempts <= 0 {
		out.MaxAttempts = def.MaxAttempts
	}
	if out.InitialDelay <= 0 {
		out.InitialDelay = def.InitialDelay
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = def.MaxDelay
	}
	if out.MaxDelay < out.InitialDelay {
		out.MaxDelay = out.InitialDelay
	}
	if out.BackoffFactor < 1.0 {
		out.BackoffFactor = def.BackoffFactor
	}

	if out.BreakerMinCalls == 0 {
		out.BreakerMinCalls = def.BreakerMinCalls
	}
	if out.BreakerFailureRate <= 0 || out.BreakerFailureRate > 1 {
		out.BreakerFailureRate = def.BreakerFailureRate
	}
	if out.BreakerCooldown <= 0 {
		out.BreakerCooldown = def.BreakerCooldown
	}
	if out.BreakerProbeCalls == 0 {
		out.BreakerProbeCalls = def.BreakerProbeCalls
	}

	return out
}
