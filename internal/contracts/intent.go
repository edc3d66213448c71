package contracts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedIntent is returned by Intent.Validate for impossible predicates
var ErrMalformedIntent = errors.New("malformed intent")

// Intent is the structured predicate derived from a free-text query
// ⭐ SSOT: Interpreter → Screener 전달 DTO
// nil 포인터 = 조건 없음 (0 과 구분)
type Intent struct {
	Sectors          []string `json:"sectors,omitempty"`            // canonical, sorted, unique
	PriceMin         *float64 `json:"price_min,omitempty"`          // USD
	PriceMax         *float64 `json:"price_max,omitempty"`          // USD
	GrowthMin        *float64 `json:"growth_min,omitempty"`         // fraction, 0.15 = 15%
	PEMax            *float64 `json:"pe_max,omitempty"`             // trailing P/E
	DividendYieldMin *float64 `json:"dividend_yield_min,omitempty"` // fraction
	MarketCapMin     *float64 `json:"market_cap_min,omitempty"`     // USD
	OtherTerms       []string `json:"other_terms,omitempty"`        // ordered remainder
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// HasConstraints reports whether at least one sector or numeric bound is present.
// OtherTerms alone only affect ranking, so they do not count.
func (i *Intent) HasConstraints() bool {
	if i == nil {
		return false
	}
	return len(i.Sectors) > 0 || i.hasNumericBound()
}

func (i *Intent) hasNumericBound() bool {
	for _, b := range i.bounds() {
		if b.value != nil {
			return true
		}
	}
	return false
}

type namedBound struct {
	name  string
	value *float64
}

func (i *Intent) bounds() []namedBound {
	return []namedBound{
		{"price_min", i.PriceMin},
		{"price_max", i.PriceMax},
		{"growth_min", i.GrowthMin},
		{"pe_max", i.PEMax},
		{"dividend_yield_min", i.DividendYieldMin},
		{"market_cap_min", i.MarketCapMin},
	}
}

// Validate checks the intent invariants
func (i *Intent) Validate() error {
	for _, b := range i.bounds() {
		if b.value != nil && *b.value < 0 {
			return fmt.Errorf("%w: %s is negative (%g)", ErrMalformedIntent, b.name, *b.value)
		}
	}
	if i.PriceMin != nil && i.PriceMax != nil && *i.PriceMin > *i.PriceMax {
		return fmt.Errorf("%w: price_min %g exceeds price_max %g", ErrMalformedIntent, *i.PriceMin, *i.PriceMax)
	}
	return nil
}

// Normalize lowercases, deduplicates and sorts sectors and trims empty terms
func (i *Intent) Normalize() {
	seen := make(map[string]struct{}, len(i.Sectors))
	sectors := make([]string, 0, len(i.Sectors))
	for _, s := range i.Sectors {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)
	i.Sectors = sectors

	terms := i.OtherTerms[:0:0]
	for _, t := range i.OtherTerms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	i.OtherTerms = terms
}

// Summary renders the intent as a short human-readable clause list
func (i *Intent) Summary() string {
	if i == nil {
		return ""
	}

	var parts []string
	if len(i.Sectors) > 0 {
		parts = append(parts, "sector: "+strings.Join(i.Sectors, " or "))
	}
	switch {
	case i.PriceMin != nil && i.PriceMax != nil:
		parts = append(parts, fmt.Sprintf("price $%s-$%s", money(*i.PriceMin), money(*i.PriceMax)))
	case i.PriceMin != nil:
		parts = append(parts, fmt.Sprintf("price >= $%s", money(*i.PriceMin)))
	case i.PriceMax != nil:
		parts = append(parts, fmt.Sprintf("price <= $%s", money(*i.PriceMax)))
	}
	if i.GrowthMin != nil {
		parts = append(parts, fmt.Sprintf("growth >= %s%%", pct(*i.GrowthMin)))
	}
	if i.PEMax != nil {
		parts = append(parts, fmt.Sprintf("P/E <= %g", *i.PEMax))
	}
	if i.DividendYieldMin != nil {
		parts = append(parts, fmt.Sprintf("dividend yield >= %s%%", pct(*i.DividendYieldMin)))
	}
	if i.MarketCapMin != nil {
		parts = append(parts, "market cap >= $"+compact(*i.MarketCapMin))
	}
	if len(i.OtherTerms) > 0 {
		parts = append(parts, "keywords: "+strings.Join(i.OtherTerms, ", "))
	}
	return strings.Join(parts, "; ")
}

func money(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.2f", v), ".00")
}

func pct(fraction float64) string {
	return fmt.Sprintf("%g", float64(int64(fraction*10000+0.5))/100)
}

func compact(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%gT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%gB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%gM", v/1e6)
	default:
		return fmt.Sprintf("%g", v)
	}
}
