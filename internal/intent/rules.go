package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/lexicon"
)

// num matches 50, 1,250.75, 12.5, .50
const num = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?|\.\d+)`

var (
	// 금액 + 단위(k/m/b) = 시가총액 하한
	// 한 글자 단위는 숫자에 붙어 있어야 함 ("$5 t-mobile" 은 시총 아님)
	marketCapRe = regexp.MustCompile(`(?:\$\s*|\busd\s*)?` + num +
		`(?:\s*(thousand|million|billion|trillion|bn)\b|(mm|k|m|b|t)(?:[^\w-]|$))`)

	priceBetweenRe = regexp.MustCompile(`\bbetween\s+(?:\$\s*|usd\s*)?` + num + `(?:\s*(?:dollars?|usd))?\s+and\s+(?:\$\s*|usd\s*)?` + num + `(?:\s*(?:dollars?|usd|bucks?))?`)
	priceDashRe    = regexp.MustCompile(`(?:\$\s*|\busd\s*)` + num + `\s*(?:-|–|to)\s*(?:\$\s*)?` + num + `(?:\s*(?:dollars?|usd|bucks?)\b)?`)
	priceWordsRe   = regexp.MustCompile(`\b` + num + `\s*(?:-|–|to)\s*` + num + `\s*(?:dollars?|usd|bucks?)\b`)
	priceSingleRe  = regexp.MustCompile(`(?:\$\s*|\busd\s*)` + num + `|\b` + num + `\s*(?:dollars?|usd|bucks?)\b|\b` + num + `\s*\$`)

	growthPctRe = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:revenue\s+|earnings\s+|sales\s+)?growth(?:\s+rate)?\s*(?:of\s+)?(?:over|above|greater than|more than|at least|exceeding|>=?)?\s*` + num + `\s*%`),
		regexp.MustCompile(`\bgrowing\s*(?:at\s+)?(?:over|above|more than|at least|>=?)?\s*` + num + `\s*%`),
		regexp.MustCompile(num + `\s*%\+?\s*(?:or more\s+)?(?:revenue\s+|earnings\s+|yoy\s+)?growth\b`),
	}
	pePctRe = []*regexp.Regexp{
		regexp.MustCompile(`(?:\bp/?e\b|\bpe ratio\b|\bprice[- ]to[- ]earnings\b)(?:\s+ratio)?\s*(?:of\s+)?(?:under|below|less than|at most|lower than|max|<=?)\s*` + num + `\b`),
		regexp.MustCompile(`(?:under|below|less than|at most)\s*` + num + `\s*(?:p/?e|pe ratio)\b`),
	}
	yieldPctRe = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:dividend\s+)?yields?(?:ing)?\s*(?:of\s+)?(?:over|above|greater than|more than|at least|>=?)?\s*` + num + `\s*%`),
		regexp.MustCompile(num + `\s*%\+?\s*(?:or more\s+)?(?:dividend\s+)?yield\b`),
	}

	tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:[.&'-][\p{L}\p{N}]+)*`)
)

var magnitudes = map[string]float64{
	"k": 1e3, "thousand": 1e3,
	"m": 1e6, "mm": 1e6, "million": 1e6,
	"b": 1e9, "bn": 1e9, "billion": 1e9,
	"t": 1e12, "trillion": 1e12,
}

// RuleExtraction is the outcome of the deterministic extractor
type RuleExtraction struct {
	Intent contracts.Intent
	// CurrencyAnchored: price bounds came from an explicit currency amount
	CurrencyAnchored bool
}

// RuleExtractor turns text into an Intent with regexes and the lexicon.
// Deterministic and side-effect free; safe for concurrent use.
type RuleExtractor struct {
	lex *lexicon.Lexicon
}

// NewRuleExtractor creates a rule extractor over lex
func NewRuleExtractor(lex *lexicon.Lexicon) *RuleExtractor {
	return &RuleExtractor{lex: lex}
}

// scan tracks which bytes of the lowered text have been claimed
type scan struct {
	text     string
	consumed []bool
}

func newScan(text string) *scan {
	return &scan{text: text, consumed: make([]bool, len(text))}
}

func (s *scan) free(start, end int) bool {
	for i := start; i < end; i++ {
		if s.consumed[i] {
			return false
		}
	}
	return true
}

func (s *scan) claim(start, end int) {
	for i := start; i < end; i++ {
		s.consumed[i] = true
	}
}

// each yields every unclaimed match of re and claims it when fn returns true
func (s *scan) each(re *regexp.Regexp, fn func(m []string) bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(s.text, -1) {
		if !s.free(loc[0], loc[1]) {
			continue
		}
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = s.text[loc[2*g]:loc[2*g+1]]
			}
		}
		if fn(groups) {
			s.claim(loc[0], loc[1])
		}
	}
}

// phrase claims every whole-word occurrence of p; reports whether any matched
func (s *scan) phrase(p string) bool {
	found := false
	for from := 0; from < len(s.text); {
		i := strings.Index(s.text[from:], p)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(p)
		if isBoundary(s.text, start-1) && isBoundary(s.text, end) && s.free(start, end) {
			s.claim(start, end)
			found = true
		}
		from = start + 1
	}
	return found
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_')
}

// remainder returns unclaimed tokens in order
func (s *scan) remainder() []string {
	var out []string
	for _, loc := range tokenRe.FindAllStringIndex(s.text, -1) {
		if s.free(loc[0], loc[1]) {
			out = append(out, s.text[loc[0]:loc[1]])
		}
	}
	return out
}

// Extract parses text into an intent
func (r *RuleExtractor) Extract(text string) RuleExtraction {
	var out RuleExtraction
	in := &out.Intent
	s := newScan(strings.Join(strings.Fields(strings.ToLower(text)), " "))

	// 1. market cap amounts (number + magnitude)
	s.each(marketCapRe, func(m []string) bool {
		v, ok := parseNum(m[1])
		if !ok {
			return false
		}
		unit := m[2]
		if unit == "" {
			unit = m[3]
		}
		lexicon.BoundMarketCapMin.Apply(in, v*magnitudes[unit])
		return true
	})

	// 2. explicit percentages / ratios
	explicit := map[lexicon.BoundKind]bool{}
	pct := func(kind lexicon.BoundKind, scale float64) func(m []string) bool {
		return func(m []string) bool {
			v, ok := parseNum(m[1])
			if !ok {
				return false
			}
			kind.Apply(in, v*scale)
			explicit[kind] = true
			return true
		}
	}
	for _, re := range growthPctRe {
		s.each(re, pct(lexicon.BoundGrowthMin, 0.01))
	}
	for _, re := range pePctRe {
		s.each(re, pct(lexicon.BoundPEMax, 1))
	}
	for _, re := range yieldPctRe {
		s.each(re, pct(lexicon.BoundDividendYieldMin, 0.01))
	}

	// 3. currency price bounds: ranges before single amounts
	setRange := func(m []string) bool {
		lo, ok1 := parseNum(m[1])
		hi, ok2 := parseNum(m[2])
		if !ok1 || !ok2 || out.CurrencyAnchored {
			return false
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		in.PriceMin, in.PriceMax = contracts.Float(lo), contracts.Float(hi)
		out.CurrencyAnchored = true
		return true
	}
	s.each(priceBetweenRe, func(m []string) bool {
		if !strings.ContainsAny(m[0], "$") && !strings.Contains(m[0], "usd") && !strings.Contains(m[0], "dollar") && !strings.Contains(m[0], "buck") {
			return false
		}
		return setRange(m)
	})
	s.each(priceDashRe, setRange)
	s.each(priceWordsRe, setRange)

	// 첫 번째 단일 금액 = 가격 상한 (정확히 그 금액)
	s.each(priceSingleRe, func(m []string) bool {
		var raw string
		for _, g := range m[1:] {
			if g != "" {
				raw = g
				break
			}
		}
		v, ok := parseNum(raw)
		if !ok {
			return false
		}
		if !out.CurrencyAnchored {
			in.PriceMax = contracts.Float(v)
			out.CurrencyAnchored = true
		}
		return true
	})

	// 4. comparative phrases from the threshold table ("blue chip" before "chip")
	for _, p := range r.lex.ThresholdPhrases() {
		if s.phrase(p.Text) && !explicit[p.Bound] {
			p.Bound.Apply(in, p.Value)
		}
	}

	// 5. sector phrases, longest first
	for _, p := range r.lex.SectorPhrases() {
		if s.phrase(p.Text) {
			in.Sectors = append(in.Sectors, p.Sector)
		}
	}

	// 6. remainder minus stopwords and numbers
	seen := map[string]bool{}
	for _, tok := range s.remainder() {
		if len(tok) < 2 || r.lex.IsStopword(tok) || isNumeric(tok) || seen[tok] {
			continue
		}
		seen[tok] = true
		in.OtherTerms = append(in.OtherTerms, tok)
	}

	in.Normalize()
	return out
}

func parseNum(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func isNumeric(tok string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
	return err == nil
}
