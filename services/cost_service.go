// services/cost_service.go
package services

import (
	"sort"
	"strings"
)

// defaultPricedModel prices any model missing from modelPrices.
const defaultPricedModel = "gpt-4o-mini"

// USD per 1M tokens.
type modelPrice struct {
	input  float64
	output float64
}

var modelPrices = map[string]modelPrice{
	"gpt-4o-mini":              {input: 0.15, output: 0.60},
	"gpt-4o":                   {input: 2.50, output: 10.00},
	"gpt-4.1":                  {input: 3.00, output: 12.00},
	"gpt-4.1-mini":             {input: 0.80, output: 3.20},
	"claude-3-haiku-20240307":  {input: 0.25, output: 1.25},
	"claude-3-5-haiku-latest":  {input: 0.80, output: 4.00},
	"claude-sonnet-4-20250514": {input: 3.00, output: 15.00},
	"sonar":                    {input: 1.00, output: 1.00},
	"sonar-pro":                {input: 3.00, output: 15.00},
}

// pricedModels is modelPrices' keys, longest first, for prefix matching.
var pricedModels = func() []string {
	names := make([]string, 0, len(modelPrices))
	for name := range modelPrices {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

// USD per 1000 web-search calls, by search vendor.
var webSearchPrices = map[string]float64{
	"openai":     35.00,
	"anthropic":  10.00,
	"perplexity": 5.00,
}

type costService struct{}

func NewCostService() CostService {
	return &costService{}
}

// CalculateCost prices one provider call. Dated model snapshots such as
// "gpt-4o-mini-2024-07-18" use their base model's price.
func (s *costService) CalculateCost(provider string, model string, inputTokens int, outputTokens int, websearch bool) float64 {
	price := priceFor(model)
	cost := float64(inputTokens)/1_000_000*price.input + float64(outputTokens)/1_000_000*price.output
	if websearch {
		cost += webSearchPrices[searchVendor(provider)] / 1000
	}
	return cost
}

func priceFor(model string) modelPrice {
	model = strings.ToLower(strings.TrimSpace(model))
	if price, ok := modelPrices[model]; ok {
		return price
	}
	for _, name := range pricedModels {
		if strings.HasPrefix(model, name+"-") {
			return modelPrices[name]
		}
	}
	return modelPrices[defaultPricedModel]
}

// searchVendor maps a provider or model name onto a webSearchPrices key.
func searchVendor(provider string) string {
	provider = strings.ToLower(provider)
	switch {
	case strings.Contains(provider, "anthropic"), strings.Contains(provider, "claude"):
		return "anthropic"
	case strings.Contains(provider, "perplexity"), strings.Contains(provider, "sonar"):
		return "perplexity"
	default:
		return "openai"
	}
}
