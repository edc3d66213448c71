package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpilot/internal/contracts"
)

func result(status contracts.Status, items ...contracts.RankedInstrument) *contracts.ScreenResult {
	return &contracts.ScreenResult{
		Status:         status,
		Items:          items,
		Intent:         contracts.Intent{Sectors: []string{"Technology"}, PriceMax: contracts.Float(50)},
		IntentSource:   contracts.SourceRules,
		Interpretation: "sector: Technology; price <= $50",
		TotalMatched:   len(items),
	}
}

func TestFromScreen_Kinds(t *testing.T) {
	xyz := contracts.RankedInstrument{
		Rank:  1,
		Score: 3,
		Record: contracts.InstrumentRecord{
			Symbol:    "XYZ",
			Name:      "XYZ Corp",
			Sector:    "Technology",
			Price:     contracts.Float(45),
			Growth:    contracts.Float(0.22),
			MarketCap: contracts.Float(2.5e9),
		},
	}

	tests := []struct {
		name     string
		in       *contracts.ScreenResult
		kind     ViewKind
		rows     int
		headline string
	}{
		{"results", result(contracts.StatusOK, xyz), KindResults, 1, "1 matching stock"},
		{"no matches", result(contracts.StatusNoMatches), KindNoMatches, 0, "No stocks matched your criteria. Try loosening a filter."},
		{"unparseable", &contracts.ScreenResult{Status: contracts.StatusUnparseable}, KindUnparseable, 0, unparseableHeadline},
		{"nil", nil, KindUnparseable, 0, unparseableHeadline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := FromScreen(tt.in)
			assert.Equal(t, tt.kind, view.Kind)
			assert.Len(t, view.Rows, tt.rows)
			assert.NotNil(t, view.Rows)
			assert.Equal(t, tt.headline, view.Headline)
		})
	}
}

func TestFromScreen_RowFormatting(t *testing.T) {
	view := FromScreen(result(contracts.StatusOK, contracts.RankedInstrument{
		Rank: 1,
		Record: contracts.InstrumentRecord{
			Symbol:        "KO",
			Price:         contracts.Float(61.234),
			Growth:        contracts.Float(0.034),
			PE:            contracts.Float(24.56),
			DividendYield: contracts.Float(0.031),
			MarketCap:     contracts.Float(2.6e11),
		},
	}, contracts.RankedInstrument{
		Rank:   2,
		Record: contracts.InstrumentRecord{Symbol: "NEW"},
	}))

	require.Len(t, view.Rows, 2)
	assert.Equal(t, Row{
		Rank: 1, Symbol: "KO", Price: "$61.23", Growth: "3.4%", PE: "24.6",
		DividendYield: "3.1%", MarketCap: "$260.00B",
	}, view.Rows[0])

	missing := view.Rows[1]
	assert.Equal(t, "-", missing.Price)
	assert.Equal(t, "-", missing.MarketCap)
}

func TestFromScreen_Truncated(t *testing.T) {
	r := result(contracts.StatusOK, contracts.RankedInstrument{Rank: 1}, contracts.RankedInstrument{Rank: 2})
	r.TotalMatched = 7
	r.Truncated = true
	r.Notices = []contracts.Notice{{Kind: contracts.KindPartialUniverse, Message: "2 symbols unavailable"}}

	view := FromScreen(r)
	assert.Equal(t, "Showing top 2 of 7 matching stocks", view.Headline)
	assert.Equal(t, []string{"[partial universe] 2 symbols unavailable"}, NoticeLines(view.Notices))
}

func TestWriteText(t *testing.T) {
	view := FromScreen(result(contracts.StatusOK, contracts.RankedInstrument{
		Rank:   1,
		Record: contracts.InstrumentRecord{Symbol: "XYZ", Name: "XYZ Corp", Price: contracts.Float(45)},
	}))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, view))
	out := buf.String()
	assert.Contains(t, out, "1 matching stock")
	assert.Contains(t, out, "Interpreted as: sector: Technology; price <= $50 (rules)")
	assert.Contains(t, out, "XYZ Corp")
	assert.Contains(t, out, "$45.00")

	buf.Reset()
	require.NoError(t, WriteText(&buf, FromScreen(nil)))
	assert.NotContains(t, buf.String(), "SYMBOL")
}
