package resilience

import "time"

type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// Profile names an outbound dependency of the pipeline.
type Profile string

const (
	ProfileBroker Profile = "broker"
	ProfileLLM    Profile = "llm"
	ProfileMail   Profile = "mail"
	ProfileGraph  Profile = "graph"
)

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// For derives the policy of one dependency from the operator-supplied base.
// The LLM answers in seconds and sees few calls, so its breaker trips earlier
// and its backoff is longer. Mail providers rate limit, so they back off longer
// and stay open for a minute. Broker and graph use the base as is.
func (c Config) For(p Profile) Config {
	out := c.normalize()
	switch p {
	case ProfileLLM:
		out.RetryMaxAttempts = min(out.RetryMaxAttempts, 2)
		out.RetryInitialBackoff = max(out.RetryInitialBackoff, time.Second)
		out.RetryMaxBackoff = max(out.RetryMaxBackoff, out.RetryInitialBackoff)
		out.BreakerMinRequests = min(out.BreakerMinRequests, 4)
	case ProfileMail:
		out.RetryInitialBackoff = max(out.RetryInitialBackoff, 500*time.Millisecond)
		out.RetryMaxBackoff = max(out.RetryMaxBackoff, 5*time.Second)
		out.BreakerOpenTimeout = max(out.BreakerOpenTimeout, time.Minute)
	}
	return out
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c

	out.RetryMaxAttempts = positiveOr(out.RetryMaxAttempts, def.RetryMaxAttempts)
	out.RetryInitialBackoff = positiveOr(out.RetryInitialBackoff, def.RetryInitialBackoff)
	out.RetryMaxBackoff = max(positiveOr(out.RetryMaxBackoff, def.RetryMaxBackoff), out.RetryInitialBackoff)
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	out.BreakerMinRequests = positiveOr(out.BreakerMinRequests, def.BreakerMinRequests)
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	out.BreakerOpenTimeout = positiveOr(out.BreakerOpenTimeout, def.BreakerOpenTimeout)
	out.BreakerHalfOpenMaxCalls = positiveOr(out.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)
	return out
}

func positiveOr[T int | uint32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
