package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestPriceUsage(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 200_000, TotalTokens: 1_200_000}

	cost, ok := PriceUsage("gemini-2.5-flash", usage)
	assert.True(t, ok)
	assert.InDelta(t, 0.30, cost.InputCost, 1e-9)
	assert.InDelta(t, 0.50, cost.OutputCost, 1e-9)
	assert.InDelta(t, 0.80, cost.TotalCost, 1e-9)
	assert.Equal(t, "USD", cost.Extra()["currency"])
}

func TestPriceUsageUnknownModel(t *testing.T) {
	cost, ok := PriceUsage("some-local-model", &schema.TokenUsage{PromptTokens: 10})
	assert.True(t, ok)
	assert.Zero(t, cost.TotalCost)

	_, ok = PriceUsage("gemini-2.5-flash", nil)
	assert.False(t, ok)
}

func TestResolvePricingByPrefix(t *testing.T) {
	assert.Equal(t, Pricing{InputPerM: 0.30, OutputPerM: 2.50}, ResolvePricing("gemini-2.5-flash-preview-05-20"))
	assert.Equal(t, Pricing{InputPerM: 0.10, OutputPerM: 0.40}, ResolvePricing("models/gemini-2.5-flash-lite"))
	assert.Equal(t, Pricing{InputPerM: 1.25, OutputPerM: 10.00}, ResolvePricing("Gemini-2.5-Pro"))
	assert.Zero(t, ResolvePricing("gpt-4o"))
}

func TestCommunicationConfig(t *testing.T) {
	c := CommunicationConfig{EmailSender: "vendas@synapse.ia"}
	assert.False(t, c.EmailConfigured())
	c.EmailPasskey = "app-pass"
	assert.True(t, c.EmailConfigured())
	assert.False(t, c.CalendarConfigured())
}
