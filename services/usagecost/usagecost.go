package usagecost

import (
	"log"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Claude API pricing per 1K tokens (approximate)
var (
	haikuInputCostPer1K   = decimal.RequireFromString("0.00025")
	haikuOutputCostPer1K  = decimal.RequireFromString("0.00125")
	sonnetInputCostPer1K  = decimal.RequireFromString("0.003")
	sonnetOutputCostPer1K = decimal.RequireFromString("0.015")
	opusInputCostPer1K    = decimal.RequireFromString("0.015")
	opusOutputCostPer1K   = decimal.RequireFromString("0.075")

	oneThousand = decimal.NewFromInt(1000)
)

// UsageTotals is a point-in-time copy of the running spend counters.
type UsageTotals struct {
	Calls         int64           `json:"calls"`
	InputTokens   int64           `json:"input_tokens"`
	OutputTokens  int64           `json:"output_tokens"`
	EstimatedCost decimal.Decimal `json:"estimated_cost_usd"`
}

// UsageCostService tracks cumulative LLM usage for the process lifetime and
// exposes it on the status surface.
type UsageCostService struct {
	mu     sync.Mutex
	totals UsageTotals
}

func NewUsageCostService() *UsageCostService {
	return &UsageCostService{
		totals: UsageTotals{EstimatedCost: decimal.Zero},
	}
}

func (s *UsageCostService) RecordUsage(model string, inputTokens, outputTokens int) {
	if inputTokens < 0 || outputTokens < 0 {
		log.Printf("⚠️ Ignoring negative token counts for model %s", model)
		return
	}

	cost := EstimateCost(model, inputTokens, outputTokens)

	s.mu.Lock()
	s.totals.Calls++
	s.totals.InputTokens += int64(inputTokens)
	s.totals.OutputTokens += int64(outputTokens)
	s.totals.EstimatedCost = s.totals.EstimatedCost.Add(cost)
	s.mu.Unlock()
}

func (s *UsageCostService) Totals() UsageTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// EstimateCost prices a single call. Unknown models are priced at the Sonnet
// tier to avoid under-reporting.
func EstimateCost(model string, inputTokens, outputTokens int) decimal.Decimal {
	inputRate, outputRate := sonnetInputCostPer1K, sonnetOutputCostPer1K
	switch {
	case strings.Contains(model, "haiku"):
		inputRate, outputRate = haikuInputCostPer1K, haikuOutputCostPer1K
	case strings.Contains(model, "opus"):
		inputRate, outputRate = opusInputCostPer1K, opusOutputCostPer1K
	}

	inputCost := decimal.NewFromInt(int64(inputTokens)).Div(oneThousand).Mul(inputRate)
	outputCost := decimal.NewFromInt(int64(outputTokens)).Div(oneThousand).Mul(outputRate)
	return inputCost.Add(outputCost)
}
