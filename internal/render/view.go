package render

import (
	"fmt"
	"strings"

	"github.com/wonny/stockpilot/internal/contracts"
)

// ViewKind selects which screen the presentation layer shows
type ViewKind string

const (
	KindResults     ViewKind = "results"
	KindNoMatches   ViewKind = "no_matches"
	KindUnparseable ViewKind = "unparseable"
)

// Row is one display-ready result line
type Row struct {
	Rank          int      `json:"rank"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Sector        string   `json:"sector"`
	Price         string   `json:"price"`
	Growth        string   `json:"growth"`
	PE            string   `json:"pe"`
	DividendYield string   `json:"dividend_yield"`
	MarketCap     string   `json:"market_cap"`
	Score         int      `json:"score"`
	MatchedTerms  []string `json:"matched_terms,omitempty"`
}

// ScreenView is the tagged view model every frontend renders from
// ⭐ SSOT: ScreenResult → 화면 변환은 여기서만
type ScreenView struct {
	Kind           ViewKind           `json:"kind"`
	Headline       string             `json:"headline"`
	Interpretation string             `json:"interpretation,omitempty"`
	IntentSource   string             `json:"intent_source,omitempty"`
	Intent         *contracts.Intent  `json:"intent,omitempty"`
	Rows           []Row              `json:"rows"`
	Notices        []contracts.Notice `json:"notices,omitempty"`
	TotalMatched   int                `json:"total_matched"`
	Truncated      bool               `json:"truncated"`
}

const placeholder = "-"

// FromScreen builds the view for a screening result
func FromScreen(result *contracts.ScreenResult) ScreenView {
	if result == nil {
		return ScreenView{Kind: KindUnparseable, Headline: unparseableHeadline, Rows: []Row{}}
	}

	view := ScreenView{
		Interpretation: result.Interpretation,
		IntentSource:   string(result.IntentSource),
		Notices:        result.Notices,
		TotalMatched:   result.TotalMatched,
		Truncated:      result.Truncated,
		Rows:           make([]Row, 0, len(result.Items)),
	}

	switch result.Status {
	case contracts.StatusUnparseable:
		view.Kind = KindUnparseable
		view.Headline = unparseableHeadline
		return view
	case contracts.StatusNoMatches:
		view.Kind = KindNoMatches
		view.Headline = "No stocks matched your criteria. Try loosening a filter."
	default:
		view.Kind = KindResults
		view.Headline = resultsHeadline(result)
	}

	intent := result.Intent
	view.Intent = &intent

	for _, item := range result.Items {
		view.Rows = append(view.Rows, rowOf(item))
	}
	return view
}

const unparseableHeadline = "Could not understand the query. Try naming a sector, a price such as \"under $50\", or a metric such as \"P/E below 20\"."

func resultsHeadline(r *contracts.ScreenResult) string {
	if r.Truncated {
		return fmt.Sprintf("Showing top %d of %d matching stocks", len(r.Items), r.TotalMatched)
	}
	if len(r.Items) == 1 {
		return "1 matching stock"
	}
	return fmt.Sprintf("%d matching stocks", len(r.Items))
}

func rowOf(item contracts.RankedInstrument) Row {
	rec := item.Record
	return Row{
		Rank:          item.Rank,
		Symbol:        rec.Symbol,
		Name:          rec.Name,
		Sector:        rec.Sector,
		Price:         formatPrice(rec.Price),
		Growth:        formatPercent(rec.Growth),
		PE:            formatRatio(rec.PE),
		DividendYield: formatPercent(rec.DividendYield),
		MarketCap:     formatMarketCap(rec.MarketCap),
		Score:         item.Score,
		MatchedTerms:  item.MatchedTerms,
	}
}

func formatPrice(v *float64) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("$%.2f", *v)
}

func formatPercent(v *float64) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func formatRatio(v *float64) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("%.1f", *v)
}

func formatMarketCap(v *float64) string {
	if v == nil {
		return placeholder
	}
	switch m := *v; {
	case m >= 1e12:
		return fmt.Sprintf("$%.2fT", m/1e12)
	case m >= 1e9:
		return fmt.Sprintf("$%.2fB", m/1e9)
	case m >= 1e6:
		return fmt.Sprintf("$%.2fM", m/1e6)
	default:
		return fmt.Sprintf("$%.0f", m)
	}
}

// NoticeLines renders notices as one line each
func NoticeLines(notices []contracts.Notice) []string {
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		lines = append(lines, fmt.Sprintf("[%s] %s", strings.ReplaceAll(string(n.Kind), "_", " "), n.Message))
	}
	return lines
}
