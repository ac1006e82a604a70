package providers

import (
	"testing"

	"github.com/nexuscore/agentcore/internal/usage"
)

func TestPriceFor_KnownModel(t *testing.T) {
	cost := PriceFor("claude-sonnet-4-20250514")
	if cost.Input != 3 || cost.Output != 15 {
		t.Errorf("got %+v, want Input=3 Output=15", cost)
	}
}

func TestPriceFor_UnknownModelPricesZero(t *testing.T) {
	cost := PriceFor("some-model-nobody-heard-of")
	if cost != (usage.Cost{}) {
		t.Errorf("expected zero cost for unknown model, got %+v", cost)
	}
}
