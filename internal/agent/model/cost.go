package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

const tokensPerPricingUnit = 1_000_000.0

// Pricing is the USD list price per million text tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// geminiPricing lists Gemini standard text prices. Longer names are tried
// first so flash-lite does not resolve to flash.
var geminiPricing = []struct {
	prefix string
	Pricing
}{
	{"gemini-2.5-flash-lite", Pricing{InputPerM: 0.10, OutputPerM: 0.40}},
	{"gemini-2.5-flash", Pricing{InputPerM: 0.30, OutputPerM: 2.50}},
	{"gemini-2.5-pro", Pricing{InputPerM: 1.25, OutputPerM: 10.00}},
	{"gemini-2.0-flash", Pricing{InputPerM: 0.10, OutputPerM: 0.40}},
}

// ResolvePricing matches model by name prefix, so dated preview names share
// the base model's price. Unknown models cost zero.
func ResolvePricing(model string) Pricing {
	model = strings.TrimPrefix(strings.ToLower(model), "models/")
	for _, p := range geminiPricing {
		if strings.HasPrefix(model, p.prefix) {
			return p.Pricing
		}
	}
	return Pricing{}
}

// UsageCost is the priced token usage of one model call.
type UsageCost struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	InputCost        float64
	OutputCost       float64
	TotalCost        float64
}

// Extra renders the cost the way it is attached to message Extra.
func (u UsageCost) Extra() map[string]any {
	return map[string]any{
		"currency":          "USD",
		"model":             u.Model,
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
		"total_tokens":      u.TotalTokens,
		"input_cost":        u.InputCost,
		"output_cost":       u.OutputCost,
		"total_cost":        u.TotalCost,
	}
}

// PriceUsage prices usage for model. ok is false when there is no usage.
func PriceUsage(model string, usage *schema.TokenUsage) (UsageCost, bool) {
	if usage == nil {
		return UsageCost{}, false
	}
	p := ResolvePricing(model)
	c := UsageCost{
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		InputCost:        p.InputPerM * float64(usage.PromptTokens) / tokensPerPricingUnit,
		OutputCost:       p.OutputPerM * float64(usage.CompletionTokens) / tokensPerPricingUnit,
	}
	c.TotalCost = c.InputCost + c.OutputCost
	return c, true
}
