// Package ratelimit gates request admission ahead of the dispatcher
// (spec §4.6's dispatcher table is unaware of rate limiting — it counts
// and routes; admission control lives at the transport boundary, one
// limiter per session).
package ratelimit

import "golang.org/x/time/rate"

// Config describes a single session's allowance.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Factory mints a fresh limiter per session at OPEN time.
type Factory struct {
	cfg Config
}

func NewFactory(cfg Config) *Factory {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 500
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1000
	}
	return &Factory{cfg: cfg}
}

// New returns a token-bucket limiter configured per f's defaults.
func (f *Factory) New() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(f.cfg.RequestsPerSecond), f.cfg.Burst)
}
