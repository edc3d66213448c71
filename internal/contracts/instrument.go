package contracts

import (
	"strings"
	"time"
)

// InstrumentRecord is one row of the candidate universe
// ⭐ SSOT: Market Data → Screener 전달 DTO
// 누락 데이터는 nil (0 으로 채우지 않음)
type InstrumentRecord struct {
	Symbol        string    `json:"symbol" yaml:"symbol"`
	Name          string    `json:"name" yaml:"name"`
	Sector        string    `json:"sector" yaml:"sector"`
	Industry      string    `json:"industry,omitempty" yaml:"industry"`
	Price         *float64  `json:"price,omitempty" yaml:"price"`
	Growth        *float64  `json:"growth,omitempty" yaml:"growth"` // YoY fraction
	PE            *float64  `json:"pe,omitempty" yaml:"pe"`
	DividendYield *float64  `json:"dividend_yield,omitempty" yaml:"dividend_yield"` // fraction
	MarketCap     *float64  `json:"market_cap,omitempty" yaml:"market_cap"`         // USD
	Tags          []string  `json:"tags,omitempty" yaml:"tags"`
	AsOf          time.Time `json:"as_of" yaml:"as_of"`
}

// SearchText joins the fields keyword matching runs against
func (r *InstrumentRecord) SearchText() string {
	parts := append([]string{r.Symbol, r.Name, r.Sector, r.Industry}, r.Tags...)
	return strings.Join(parts, " ")
}

// Universe is the candidate set available at query time
type Universe struct {
	Records []InstrumentRecord `json:"records"`
	// Missing maps symbols that could not be fetched to the failure reason
	Missing map[string]string `json:"missing,omitempty"`
	AsOf    time.Time         `json:"as_of"`
}

// Len returns the number of records
func (u *Universe) Len() int {
	if u == nil {
		return 0
	}
	return len(u.Records)
}
