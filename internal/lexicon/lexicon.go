package lexicon

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// File is the on-disk lexicon layout
type File struct {
	Version    string      `yaml:"version" json:"version"`
	Sectors    []Sector    `yaml:"sectors" json:"sectors"`
	Thresholds []Threshold `yaml:"thresholds" json:"thresholds"`
	Stopwords  []string    `yaml:"stopwords" json:"stopwords"`
}

// Sector is a canonical sector with its synonyms and screening symbols
type Sector struct {
	Name     string   `yaml:"name" json:"name"`
	Synonyms []string `yaml:"synonyms" json:"synonyms"`
	Symbols  []string `yaml:"symbols" json:"symbols"`
}

// Threshold maps comparative phrases to a fixed bound
type Threshold struct {
	Phrases []string  `yaml:"phrases" json:"phrases"`
	Bound   BoundKind `yaml:"bound" json:"bound"`
	Value   float64   `yaml:"value" json:"value"`
}

// Phrase is a lexicon phrase resolved to its meaning
type Phrase struct {
	Text   string
	Sector string    // set for sector phrases
	Bound  BoundKind // set for threshold phrases
	Value  float64
}

// Lexicon is the immutable, indexed form of File
// ⭐ SSOT: 섹터 동의어 / 키워드 임계값 / 불용어는 여기서만
// 로드 후 읽기 전용 (요청 간 공유 안전)
type Lexicon struct {
	file          File
	canonical     map[string]string // synonym or name → canonical sector
	sectorPhrases []Phrase          // longest first
	thresholds    []Phrase          // longest first
	stopwords     map[string]struct{}
	symbolSector  map[string]string
	allSymbols    []string
}

// Default returns the embedded lexicon
func Default() (*Lexicon, error) {
	return Parse(defaultYAML)
}

// Load reads the lexicon at path, or the embedded default when path is empty
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates lexicon YAML
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Parse(data []byte) (*Lexicon, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}

	if err := Validate(&f); err != nil {
		return nil, err
	}

	return build(f), nil
}

func build(f File) *Lexicon {
	l := &Lexicon{
		file:         f,
		canonical:    make(map[string]string),
		stopwords:    make(map[string]struct{}, len(f.Stopwords)),
		symbolSector: make(map[string]string),
	}

	for _, s := range f.Sectors {
		name := normalizePhrase(s.Name)
		l.canonical[name] = name
		l.sectorPhrases = append(l.sectorPhrases, Phrase{Text: name, Sector: name})
		for _, syn := range s.Synonyms {
			syn = normalizePhrase(syn)
			if _, dup := l.canonical[syn]; dup {
				continue
			}
			l.canonical[syn] = name
			l.sectorPhrases = append(l.sectorPhrases, Phrase{Text: syn, Sector: name})
		}
		for _, sym := range s.Symbols {
			sym = strings.ToUpper(sym)
			if _, dup := l.symbolSector[sym]; dup {
				continue
			}
			l.symbolSector[sym] = name
			l.allSymbols = append(l.allSymbols, sym)
		}
	}

	for _, t := range f.Thresholds {
		for _, p := range t.Phrases {
			l.thresholds = append(l.thresholds, Phrase{Text: normalizePhrase(p), Bound: t.Bound, Value: t.Value})
		}
	}

	for _, w := range f.Stopwords {
		l.stopwords[strings.ToLower(w)] = struct{}{}
	}

	longestFirst(l.sectorPhrases)
	longestFirst(l.thresholds)
	return l
}

// longestFirst orders phrases by word count then length, descending.
// 같은 길이는 사전순 (결정적)
func longestFirst(ps []Phrase) {
	sort.SliceStable(ps, func(i, j int) bool {
		wi, wj := len(strings.Fields(ps[i].Text)), len(strings.Fields(ps[j].Text))
		if wi != wj {
			return wi > wj
		}
		if len(ps[i].Text) != len(ps[j].Text) {
			return len(ps[i].Text) > len(ps[j].Text)
		}
		return ps[i].Text < ps[j].Text
	})
}

func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Version returns the lexicon version string
func (l *Lexicon) Version() string {
	return l.file.Version
}

// CanonicalSector maps a sector name, synonym or provider industry label to
// its canonical sector.
func (l *Lexicon) CanonicalSector(name string) (string, bool) {
	s, ok := l.canonical[normalizePhrase(name)]
	return s, ok
}

// SectorNames returns every canonical sector in file order
func (l *Lexicon) SectorNames() []string {
	out := make([]string, len(l.file.Sectors))
	for i, s := range l.file.Sectors {
		out[i] = normalizePhrase(s.Name)
	}
	return out
}

// SectorPhrases returns sector phrases, longest first
func (l *Lexicon) SectorPhrases() []Phrase {
	return l.sectorPhrases
}

// ThresholdPhrases returns comparative phrases, longest first
func (l *Lexicon) ThresholdPhrases() []Phrase {
	return l.thresholds
}

// IsStopword reports whether w carries no screening meaning
func (l *Lexicon) IsStopword(w string) bool {
	_, ok := l.stopwords[strings.ToLower(w)]
	return ok
}

// SectorOfSymbol returns the configured sector for a symbol
func (l *Lexicon) SectorOfSymbol(symbol string) string {
	return l.symbolSector[strings.ToUpper(symbol)]
}

// AllSymbols returns every configured symbol in file order
func (l *Lexicon) AllSymbols() []string {
	return append([]string(nil), l.allSymbols...)
}

// SymbolsFor returns the symbols of the given sectors in file order.
// No sectors → every configured symbol.
func (l *Lexicon) SymbolsFor(sectors []string) []string {
	if len(sectors) == 0 {
		return l.AllSymbols()
	}

	want := make(map[string]bool, len(sectors))
	for _, s := range sectors {
		if c, ok := l.CanonicalSector(s); ok {
			want[c] = true
		}
	}

	var out []string
	for _, sym := range l.allSymbols {
		if want[l.symbolSector[sym]] {
			out = append(out, sym)
		}
	}
	return out
}

// Hash returns a SHA256 of the canonical JSON form (logged at startup)
func (l *Lexicon) Hash() (string, error) {
	jsonBytes, err := json.Marshal(l.file)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
