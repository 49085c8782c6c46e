package observability

import (
	"strconv"

	"github.com/Conceptual-Machines/hybridation-api/internal/llm"
)

const costFormatPrecision = 6

// Per-call list prices in USD. Image calls dominate; text enhancement is a
// single short completion.
const (
	geminiEnhancePrice  = 0.0001
	geminiGeneratePrice = 0.134
	openAIEnhancePrice  = 0.0002
	openAIGeneratePrice = 0.25
)

// CallPricing is the estimated price of one provider call per stage.
type CallPricing struct {
	Enhance  float64
	Generate float64
}

// PricingTable maps provider names to their per-call estimates.
var PricingTable = map[string]CallPricing{
	"gemini": {
		Enhance:  geminiEnhancePrice,
		Generate: geminiGeneratePrice,
	},
	"openai": {
		Enhance:  openAIEnhancePrice,
		Generate: openAIGeneratePrice,
	},
}

// EstimateCallCost returns the estimated USD cost of a call. Unknown
// providers and failed calls are free.
func EstimateCallCost(provider string, stage llm.Stage, succeeded bool) float64 {
	if !succeeded {
		return 0
	}
	pricing, ok := PricingTable[provider]
	if !ok {
		return 0
	}
	switch stage {
	case llm.StageEnhance:
		return pricing.Enhance
	case llm.StageGenerate:
		return pricing.Generate
	default:
		return 0
	}
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
