package selection

import (
	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/lexicon"
)

// Filter reasons, used as keys of the per-screen rejection counts
const (
	reasonSector        = "sector"
	reasonPrice         = "price"
	reasonGrowth        = "growth"
	reasonPE            = "pe"
	reasonDividendYield = "dividend_yield"
	reasonMarketCap     = "market_cap"
	reasonMissing       = "missing_"
)

// Filter applies the hard cut conditions of an Intent
// ⭐ SSOT: 필터 조건은 여기서만
// 섹터는 OR, 수치 조건은 AND, 필드 누락 = 제외
type Filter struct {
	lex *lexicon.Lexicon
}

// NewFilter creates a filter that normalizes record sectors through lex
func NewFilter(lex *lexicon.Lexicon) *Filter {
	return &Filter{lex: lex}
}

// Check returns "" when rec satisfies intent, otherwise the filter name
func (f *Filter) Check(intent *contracts.Intent, rec *contracts.InstrumentRecord) string {
	if len(intent.Sectors) > 0 && !f.inSectors(intent.Sectors, rec) {
		return reasonSector
	}

	if intent.PriceMin != nil || intent.PriceMax != nil {
		if rec.Price == nil {
			return reasonMissing + reasonPrice
		}
		if intent.PriceMin != nil && *rec.Price < *intent.PriceMin {
			return reasonPrice
		}
		if intent.PriceMax != nil && *rec.Price > *intent.PriceMax {
			return reasonPrice
		}
	}

	if reason := atLeast(intent.GrowthMin, rec.Growth, reasonGrowth); reason != "" {
		return reason
	}

	// 적자(PE <= 0)는 PE 상한을 만족하지 않음
	if intent.PEMax != nil {
		if rec.PE == nil {
			return reasonMissing + reasonPE
		}
		if *rec.PE <= 0 || *rec.PE > *intent.PEMax {
			return reasonPE
		}
	}

	if reason := atLeast(intent.DividendYieldMin, rec.DividendYield, reasonDividendYield); reason != "" {
		return reason
	}

	return atLeast(intent.MarketCapMin, rec.MarketCap, reasonMarketCap)
}

func atLeast(bound, value *float64, name string) string {
	if bound == nil {
		return ""
	}
	if value == nil {
		return reasonMissing + name
	}
	if *value < *bound {
		return name
	}
	return ""
}

func (f *Filter) inSectors(sectors []string, rec *contracts.InstrumentRecord) bool {
	own := make(map[string]bool, 2)
	for _, label := range []string{rec.Sector, rec.Industry} {
		if s, ok := f.lex.CanonicalSector(label); ok {
			own[s] = true
		}
	}

	for _, s := range sectors {
		if own[s] {
			return true
		}
	}
	return false
}
