// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pricing

import (
	"math"

	"github.com/jeranaias/council-tui/internal/council"
)

// =============================================================================
// ASSUMPTIONS
// =============================================================================

// DefaultCharsPerToken is a rough heuristic; good enough for an estimate.
const DefaultCharsPerToken = 4.0

// Assumptions parameterize the token arithmetic. Ratios describe how long
// each stage's output runs relative to the prompt; minimums keep tiny
// prompts from producing dramatic underestimates.
type Assumptions struct {
	CharsPerToken float64

	MinStage1Tokens int
	MinStage2Tokens int
	MinStage3Tokens int

	Stage1OutputRatio float64
	Stage2OutputRatio float64
	Stage3OutputRatio float64
}

// DefaultAssumptions returns the assumption set the backend uses.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		CharsPerToken:     DefaultCharsPerToken,
		MinStage1Tokens:   512,
		MinStage2Tokens:   256,
		MinStage3Tokens:   256,
		Stage1OutputRatio: 0.9,
		Stage2OutputRatio: 0.35,
		Stage3OutputRatio: 0.8,
	}
}

// =============================================================================
// RATE TABLE
// =============================================================================

// Rate holds one model's price per million tokens.
type Rate struct {
	InputPerMillion  float64 `json:"input_per_million" toml:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million" toml:"output_per_million"`
}

// Table maps model IDs to their rates. Models missing from the table
// estimate to zero and are flagged PricingMissing.
type Table map[string]Rate

// =============================================================================
// TOKEN ARITHMETIC
// =============================================================================

// TokensFromChars approximates token count from character count.
func TokensFromChars(chars int, charsPerToken float64) int {
	if chars <= 0 {
		return 0
	}
	if charsPerToken < 1e-6 {
		charsPerToken = 1e-6
	}
	return int(math.Ceil(float64(chars) / charsPerToken))
}

// EstimateModel computes one model's cost for the given token counts.
func EstimateModel(modelID string, inputTokens, outputTokens int, table Table) council.ModelCost {
	r := table[modelID]
	costIn := float64(inputTokens) / 1e6 * r.InputPerMillion
	costOut := float64(outputTokens) / 1e6 * r.OutputPerMillion
	return council.ModelCost{
		Model:                modelID,
		InputTokens:          inputTokens,
		OutputTokens:         outputTokens,
		InputRatePerMillion:  r.InputPerMillion,
		OutputRatePerMillion: r.OutputPerMillion,
		CostInput:            costIn,
		CostOutput:           costOut,
		CostTotal:            costIn + costOut,
		PricingMissing:       r.InputPerMillion == 0 && r.OutputPerMillion == 0,
	}
}

// =============================================================================
// COUNCIL ESTIMATE
// =============================================================================

// EstimateCouncil estimates a full three-stage run over totalChars of
// prompt (message plus attachments).
//
// Stage 1 sends the prompt to every council model; stage 2 sends the
// prompt plus all anonymized stage-1 drafts back to every model; stage 3
// sends everything to the single chairman model.
func EstimateCouncil(totalChars int, models []string, chairman string, table Table, a Assumptions) *council.CostEstimate {
	baseTokens := TokensFromChars(totalChars, a.CharsPerToken)
	if baseTokens < a.MinStage1Tokens {
		baseTokens = a.MinStage1Tokens
	}
	numModels := len(models)

	stage1In := baseTokens
	stage1Out := ceilRatio(baseTokens, a.Stage1OutputRatio)
	if half := a.MinStage1Tokens / 2; stage1Out < half {
		stage1Out = half
	}
	stage1TotalOut := stage1Out * numModels

	stage2In := baseTokens + stage1TotalOut
	if stage2In < a.MinStage2Tokens {
		stage2In = a.MinStage2Tokens
	}
	stage2Out := ceilRatio(baseTokens, a.Stage2OutputRatio)
	if stage2Out < a.MinStage2Tokens {
		stage2Out = a.MinStage2Tokens
	}
	stage2TotalOut := stage2Out * numModels

	stage3In := baseTokens + stage1TotalOut + stage2TotalOut
	if stage3In < a.MinStage3Tokens {
		stage3In = a.MinStage3Tokens
	}
	stage3Out := ceilRatio(baseTokens, a.Stage3OutputRatio)
	if stage3Out < a.MinStage3Tokens {
		stage3Out = a.MinStage3Tokens
	}

	est := &council.CostEstimate{
		CharCount:  totalChars,
		BaseTokens: baseTokens,
		Assumptions: map[string]float64{
			"chars_per_token":               a.CharsPerToken,
			"stage1_output_ratio":           a.Stage1OutputRatio,
			"stage2_output_ratio":           a.Stage2OutputRatio,
			"stage3_output_ratio":           a.Stage3OutputRatio,
			"stage1_input_tokens_per_model": float64(stage1In),
			"stage2_input_tokens_per_model": float64(stage2In),
			"stage3_input_tokens":           float64(stage3In),
			"num_models":                    float64(numModels),
		},
	}

	for _, m := range models {
		mc := EstimateModel(m, stage1In, stage1Out, table)
		est.Stage1.PerModel = append(est.Stage1.PerModel, mc)
		est.Stage1.CostTotal += mc.CostTotal
	}
	for _, m := range models {
		mc := EstimateModel(m, stage2In, stage2Out, table)
		est.Stage2.PerModel = append(est.Stage2.PerModel, mc)
		est.Stage2.CostTotal += mc.CostTotal
	}
	est.Stage3.Chairman = EstimateModel(chairman, stage3In, stage3Out, table)
	est.Stage3.CostTotal = est.Stage3.Chairman.CostTotal

	est.CostTotal = est.Stage1.CostTotal + est.Stage2.CostTotal + est.Stage3.CostTotal
	return est
}

func ceilRatio(tokens int, ratio float64) int {
	return int(math.Ceil(float64(tokens) * ratio))
}
