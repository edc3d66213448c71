package contracts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntent_HasConstraints(t *testing.T) {
	tests := []struct {
		name   string
		intent *Intent
		want   bool
	}{
		{"nil intent", nil, false},
		{"empty", &Intent{}, false},
		{"other terms only", &Intent{OtherTerms: []string{"ai"}}, false},
		{"sector", &Intent{Sectors: []string{"technology"}}, true},
		{"price max", &Intent{PriceMax: Float(50)}, true},
		{"zero growth floor counts", &Intent{GrowthMin: Float(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.intent.HasConstraints())
		})
	}
}

func TestIntent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intent  Intent
		wantErr bool
	}{
		{"empty ok", Intent{}, false},
		{"range ok", Intent{PriceMin: Float(10), PriceMax: Float(50)}, false},
		{"equal bounds ok", Intent{PriceMin: Float(50), PriceMax: Float(50)}, false},
		{"inverted range", Intent{PriceMin: Float(60), PriceMax: Float(50)}, true},
		{"negative pe", Intent{PEMax: Float(-1)}, true},
		{"negative cap", Intent{MarketCapMin: Float(-5)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMalformedIntent), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIntent_Normalize(t *testing.T) {
	intent := Intent{
		Sectors:    []string{" Technology", "energy", "technology", ""},
		OtherTerms: []string{"ai", " ", "cloud"},
	}
	intent.Normalize()

	assert.Equal(t, []string{"energy", "technology"}, intent.Sectors)
	assert.Equal(t, []string{"ai", "cloud"}, intent.OtherTerms)
}

func TestIntent_Summary(t *testing.T) {
	intent := &Intent{
		Sectors:      []string{"technology"},
		PriceMax:     Float(50),
		GrowthMin:    Float(0.15),
		MarketCapMin: Float(10e9),
		OtherTerms:   []string{"ai"},
	}

	assert.Equal(t,
		"sector: technology; price <= $50; growth >= 15%; market cap >= $10B; keywords: ai",
		intent.Summary())
	assert.Equal(t, "price $10.50-$20", (&Intent{PriceMin: Float(10.5), PriceMax: Float(20)}).Summary())
}

func TestScreenResult_Helpers(t *testing.T) {
	result := &ScreenResult{
		Items: []RankedInstrument{
			{Rank: 1, Record: InstrumentRecord{Symbol: "XYZ"}},
			{Rank: 2, Record: InstrumentRecord{Symbol: "ABC"}},
		},
		Notices: []Notice{{Kind: KindUpstreamTimeout}},
	}

	assert.Equal(t, []string{"XYZ", "ABC"}, result.Symbols())
	assert.True(t, result.HasNotice(KindUpstreamTimeout))
	assert.False(t, result.HasNotice(KindEmptyUniverse))
}

func TestInstrumentRecord_SearchText(t *testing.T) {
	r := InstrumentRecord{Symbol: "NVDA", Name: "NVIDIA Corp", Sector: "technology", Industry: "Semiconductors", Tags: []string{"ai", "gpu"}}
	assert.Equal(t, "NVDA NVIDIA Corp technology Semiconductors ai gpu", r.SearchText())
}
