package contracts

// Status tells the presentation layer which view to render
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoMatches   Status = "no_matches"
	StatusUnparseable Status = "unparseable"
)

// IntentSource records which extractor produced the intent
type IntentSource string

const (
	SourceLLM   IntentSource = "llm"
	SourceRules IntentSource = "rules"
)

// ErrorKind classifies recoverable problems attached to a result
type ErrorKind string

const (
	KindUpstreamTimeout         ErrorKind = "upstream_timeout"
	KindUpstreamUnavailable     ErrorKind = "upstream_unavailable"
	KindMalformedIntentResponse ErrorKind = "malformed_intent_response"
	KindEmptyUniverse           ErrorKind = "empty_universe"
	KindPartialUniverse         ErrorKind = "partial_universe"
	KindUnparseableQuery        ErrorKind = "unparseable_query"
)

// Notice is a non-fatal condition surfaced next to the results
type Notice struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Interpretation is what the interpreter hands to the screener
type Interpretation struct {
	Intent  Intent       `json:"intent"`
	Source  IntentSource `json:"source"`
	Summary string       `json:"summary,omitempty"` // LLM's one-line reading of the query
	Notices []Notice     `json:"notices,omitempty"`
}

// Parsed reports whether the query yielded any usable constraint
func (i *Interpretation) Parsed() bool {
	return i.Intent.HasConstraints()
}

// RankedInstrument is one ranked row of a ScreenResult
type RankedInstrument struct {
	Rank         int              `json:"rank"` // 1-based
	Score        int              `json:"score"`
	Record       InstrumentRecord `json:"record"`
	MatchedTerms []string         `json:"matched_terms,omitempty"`
}

// ScreenResult is the ranked, size-bounded output of one screen
// ⭐ SSOT: Screener → Presentation 전달 DTO
type ScreenResult struct {
	Status         Status             `json:"status"`
	Items          []RankedInstrument `json:"items"`
	Intent         Intent             `json:"intent"`
	IntentSource   IntentSource       `json:"intent_source"`
	Interpretation string             `json:"interpretation,omitempty"`
	Notices        []Notice           `json:"notices,omitempty"`
	TotalMatched   int                `json:"total_matched"`
	Truncated      bool               `json:"truncated"`
}

// Symbols returns the ranked symbols in order
func (r *ScreenResult) Symbols() []string {
	out := make([]string, len(r.Items))
	for i, item := range r.Items {
		out[i] = item.Record.Symbol
	}
	return out
}

// HasNotice reports whether a notice of kind is attached
func (r *ScreenResult) HasNotice(kind ErrorKind) bool {
	for _, n := range r.Notices {
		if n.Kind == kind {
			return true
		}
	}
	return false
}
