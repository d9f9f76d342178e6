// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles outgoing requests to a single platform API. Each
// backend holds its own Limiter so a chatty platform cannot starve the
// others, and concurrent fan-out still respects per-host etiquette.
type Limiter struct {
	l *rate.Limiter
}

// NewLimiter returns a limiter allowing rps requests per second with a
// burst of one. Non-positive rps disables throttling.
func NewLimiter(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	return &Limiter{l: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until the next request may be sent or the context is done.
func (lm *Limiter) Wait(ctx context.Context) error {
	if lm == nil || lm.l == nil {
		return nil
	}
	return lm.l.Wait(ctx)
}
