package lexicon

import "github.com/wonny/stockpilot/internal/contracts"

// BoundKind names the Intent field a threshold phrase sets
type BoundKind string

const (
	BoundGrowthMin        BoundKind = "growth_min"
	BoundPEMax            BoundKind = "pe_max"
	BoundDividendYieldMin BoundKind = "dividend_yield_min"
	BoundMarketCapMin     BoundKind = "market_cap_min"
)

// Valid reports whether k is a known bound kind
func (k BoundKind) Valid() bool {
	switch k {
	case BoundGrowthMin, BoundPEMax, BoundDividendYieldMin, BoundMarketCapMin:
		return true
	}
	return false
}

// Apply sets the bound on intent. If the bound is already set the stricter
// value is kept: the larger floor, the smaller ceiling.
func (k BoundKind) Apply(intent *contracts.Intent, v float64) {
	switch k {
	case BoundGrowthMin:
		intent.GrowthMin = floor(intent.GrowthMin, v)
	case BoundDividendYieldMin:
		intent.DividendYieldMin = floor(intent.DividendYieldMin, v)
	case BoundMarketCapMin:
		intent.MarketCapMin = floor(intent.MarketCapMin, v)
	case BoundPEMax:
		intent.PEMax = ceiling(intent.PEMax, v)
	}
}

func floor(cur *float64, v float64) *float64 {
	if cur != nil && *cur >= v {
		return cur
	}
	return contracts.Float(v)
}

func ceiling(cur *float64, v float64) *float64 {
	if cur != nil && *cur <= v {
		return cur
	}
	return contracts.Float(v)
}
