package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/pkg/logger"
)

// Ranker orders filtered records by keyword relevance
// ⭐ SSOT: 랭킹 로직은 여기서만
// Score = 매칭된 OtherTerms 개수, 동점은 심볼 오름차순
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// keywordDoc is the bleve document for one record
type keywordDoc struct {
	Text string `json:"text"`
}

// Rank scores records against terms, sorts them and assigns 1-based ranks.
// records must already be unique by symbol.
func (r *Ranker) Rank(terms []string, records []contracts.InstrumentRecord) []contracts.RankedInstrument {
	ranked := make([]contracts.RankedInstrument, len(records))
	for i := range records {
		ranked[i] = contracts.RankedInstrument{Record: records[i]}
	}

	if len(terms) > 0 && len(records) > 0 {
		matches, err := matchTerms(terms, records)
		if err != nil {
			// 키워드 점수 없이 심볼 순으로 정렬
			r.logger.WithError(err).Warn("keyword scoring failed")
		}
		for i := range ranked {
			ranked[i].MatchedTerms = matches[ranked[i].Record.Symbol]
			ranked[i].Score = len(ranked[i].MatchedTerms)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Record.Symbol < ranked[j].Record.Symbol
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

// matchTerms builds an in-memory index over records and returns, per symbol,
// the terms (in query order) that matched its searchable text.
func matchTerms(terms []string, records []contracts.InstrumentRecord) (map[string][]string, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i := range records {
		doc := keywordDoc{Text: strings.ToLower(records[i].SearchText())}
		if err := batch.Index(records[i].Symbol, doc); err != nil {
			return nil, fmt.Errorf("failed to add %s to batch: %w", records[i].Symbol, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to execute batch: %w", err)
	}

	matches := make(map[string][]string)
	for _, term := range terms {
		q := bleve.NewMatchQuery(term)
		q.SetField("text")
		q.SetOperator(query.MatchQueryOperatorAnd)

		req := bleve.NewSearchRequest(q)
		req.Size = len(records)

		res, err := index.Search(req)
		if err != nil {
			return matches, fmt.Errorf("failed to search %q: %w", term, err)
		}
		for _, hit := range res.Hits {
			matches[hit.ID] = append(matches[hit.ID], term)
		}
	}

	return matches, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
