// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pricing

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/council-tui/internal/council"
)

// =============================================================================
// TOKEN ARITHMETIC TESTS
// =============================================================================

func TestTokensFromChars(t *testing.T) {
	tests := []struct {
		chars int
		want  int
	}{
		{0, 0},
		{-5, 0},
		{4, 1},
		{9, 3}, // ceil(9/4)
		{4000, 1000},
	}
	for _, tt := range tests {
		if got := TokensFromChars(tt.chars, DefaultCharsPerToken); got != tt.want {
			t.Errorf("TokensFromChars(%d) = %d, want %d", tt.chars, got, tt.want)
		}
	}
}

// =============================================================================
// COUNCIL ESTIMATE TESTS
// =============================================================================

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateCouncil(t *testing.T) {
	table := Table{
		"model-a":  {InputPerMillion: 1, OutputPerMillion: 2},
		"chairman": {InputPerMillion: 10, OutputPerMillion: 20},
	}

	est := EstimateCouncil(4000, []string{"model-a", "model-b"}, "chairman", table, DefaultAssumptions())

	if est.BaseTokens != 1000 {
		t.Errorf("BaseTokens = %d, want 1000", est.BaseTokens)
	}

	// Stage 1: each model reads the 1000-token prompt and writes ~900.
	if len(est.Stage1.PerModel) != 2 {
		t.Fatalf("Stage1 models = %d, want 2", len(est.Stage1.PerModel))
	}
	a := est.Stage1.PerModel[0]
	if a.InputTokens != 1000 || a.OutputTokens != 900 {
		t.Errorf("Stage1 tokens = %d/%d, want 1000/900", a.InputTokens, a.OutputTokens)
	}
	if !almostEqual(a.CostTotal, 0.0028) {
		t.Errorf("Stage1 model-a cost = %v, want 0.0028", a.CostTotal)
	}
	if !est.Stage1.PerModel[1].PricingMissing {
		t.Error("model-b has no rates and should be flagged PricingMissing")
	}

	// Stage 2: prompt plus both drafts (1000 + 1800) in, ~350 out.
	if in := est.Stage2.PerModel[0].InputTokens; in != 2800 {
		t.Errorf("Stage2 input tokens = %d, want 2800", in)
	}
	if !almostEqual(est.Stage2.PerModel[0].CostTotal, 0.0035) {
		t.Errorf("Stage2 model-a cost = %v, want 0.0035", est.Stage2.PerModel[0].CostTotal)
	}

	// Stage 3: chairman reads everything (1000 + 1800 + 700), writes ~800.
	ch := est.Stage3.Chairman
	if ch.InputTokens != 3500 || ch.OutputTokens != 800 {
		t.Errorf("Stage3 tokens = %d/%d, want 3500/800", ch.InputTokens, ch.OutputTokens)
	}
	if !almostEqual(ch.CostTotal, 0.051) {
		t.Errorf("Stage3 cost = %v, want 0.051", ch.CostTotal)
	}

	if !almostEqual(est.CostTotal, 0.0573) {
		t.Errorf("CostTotal = %v, want 0.0573", est.CostTotal)
	}
}

func TestEstimateCouncilTinyPromptClampsToMinimums(t *testing.T) {
	est := EstimateCouncil(4, []string{"m"}, "chair", nil, DefaultAssumptions())

	if est.BaseTokens != 512 {
		t.Errorf("BaseTokens = %d, want the 512 floor", est.BaseTokens)
	}
	if out := est.Stage2.PerModel[0].OutputTokens; out != 256 {
		t.Errorf("Stage2 output tokens = %d, want the 256 floor", out)
	}
}

// =============================================================================
// THROTTLED ESTIMATOR TESTS
// =============================================================================

func TestEstimatorThrottlesBackendCalls(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"char_count": 40, "base_tokens": 512, "cost_total": 0.42,
			"stage1": {"per_model": [], "cost_total": 0},
			"stage2": {"per_model": [], "cost_total": 0},
			"stage3": {"chairman": {"model": "chair"}, "cost_total": 0.42}}`))
	}))
	defer srv.Close()

	e := NewEstimator(council.NewClient(srv.URL), time.Hour)

	est, fromBackend, err := e.Estimate(context.Background(), 40, []string{"m"}, "chair")
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if !fromBackend || !almostEqual(est.CostTotal, 0.42) {
		t.Errorf("First estimate should come from the backend, got fromBackend=%v total=%v",
			fromBackend, est.CostTotal)
	}

	// Second call inside the interval: local arithmetic, no request.
	_, fromBackend, err = e.Estimate(context.Background(), 40, []string{"m"}, "chair")
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if fromBackend {
		t.Error("Second estimate inside the interval should be local")
	}
	if calls != 1 {
		t.Errorf("Backend called %d times, want 1", calls)
	}
	if e.Last() == nil || !almostEqual(e.Last().CostTotal, 0.42) {
		t.Error("Last should retain the backend estimate")
	}
}

func TestEstimatorFallsBackOnBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "pricing unavailable"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewEstimator(council.NewClient(srv.URL), time.Hour)
	est, fromBackend, err := e.Estimate(context.Background(), 4000, []string{"m"}, "chair")
	if err != nil {
		t.Fatalf("Estimate should not fail: %v", err)
	}
	if fromBackend {
		t.Error("A failed backend call must fall back to the local figure")
	}
	if est.BaseTokens != 1000 {
		t.Errorf("Local fallback BaseTokens = %d, want 1000", est.BaseTokens)
	}
}
