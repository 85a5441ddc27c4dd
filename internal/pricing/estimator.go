// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pricing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/council-tui/internal/council"
)

// =============================================================================
// THROTTLED ESTIMATOR
// =============================================================================

// DefaultRefreshInterval is the minimum spacing between backend estimate
// calls while the user types.
const DefaultRefreshInterval = 2 * time.Second

// Estimator serves cost estimates for the composer. Every call returns an
// answer immediately: a backend estimate when the rate limiter permits
// one, otherwise a local approximation from the mirrored arithmetic.
type Estimator struct {
	client  *council.Client
	limiter *rate.Limiter
	table   Table
	assume  Assumptions

	mu   sync.Mutex
	last *council.CostEstimate // most recent backend answer
}

// NewEstimator creates an estimator that queries the backend at most once
// per interval. A zero interval uses DefaultRefreshInterval.
func NewEstimator(client *council.Client, interval time.Duration) *Estimator {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Estimator{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		assume:  DefaultAssumptions(),
	}
}

// WithTable sets the local rate table used between backend refreshes.
func (e *Estimator) WithTable(t Table) *Estimator {
	e.table = t
	return e
}

// WithAssumptions overrides the default estimate assumptions.
func (e *Estimator) WithAssumptions(a Assumptions) *Estimator {
	e.assume = a
	return e
}

// Estimate returns a cost estimate for totalChars of prompt. The boolean
// reports whether the answer came from the backend. Throttled calls and
// backend failures fall back to the local approximation, so the composer
// never blocks on pricing.
func (e *Estimator) Estimate(ctx context.Context, totalChars int, models []string, chairman string) (*council.CostEstimate, bool, error) {
	if e.client != nil && e.limiter.Allow() {
		est, err := e.client.EstimateCost(ctx, council.EstimateRequest{
			MessageLengthChars: totalChars,
			Models:             models,
			ChairmanModel:      chairman,
		})
		if err == nil {
			e.mu.Lock()
			e.last = est
			e.mu.Unlock()
			return est, true, nil
		}
		// Fall through to the local figure; the error is not fatal.
	}
	return EstimateCouncil(totalChars, models, chairman, e.table, e.assume), false, nil
}

// Last returns the most recent backend estimate, or nil if none has
// arrived yet.
func (e *Estimator) Last() *council.CostEstimate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}
