package providers

import "github.com/nexuscore/agentcore/internal/usage"

// priceTable is a static per-million-token price table keyed by model id.
// Unknown models price at 0, per spec: cost calculation never blocks on a
// missing price entry.
var priceTable = map[string]usage.Cost{
	"claude-opus-4-20250514":     {Input: 15, Output: 75},
	"claude-sonnet-4-20250514":   {Input: 3, Output: 15},
	"claude-3-5-sonnet-20241022": {Input: 3, Output: 15},
	"claude-3-haiku-20240307":    {Input: 0.25, Output: 1.25},
	"gpt-4o":                     {Input: 2.5, Output: 10},
	"gpt-4o-mini":                {Input: 0.15, Output: 0.6},
	"gpt-4-turbo":                {Input: 10, Output: 30},
}

// PriceFor returns the price table entry for model, or the zero Cost if
// unknown.
func PriceFor(model string) usage.Cost {
	return priceTable[model]
}
