package lexicon

import (
	"fmt"
	"strings"
)

// ValidationError 검증 실패 (로드 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("lexicon %s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(f *File) error {
	if len(f.Sectors) == 0 {
		return ValidationError{"sectors", "at least one sector required"}
	}

	// === Sectors ===
	owner := make(map[string]string)
	for i, s := range f.Sectors {
		field := fmt.Sprintf("sectors[%d]", i)
		name := normalizePhrase(s.Name)
		if name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if prev, dup := owner[name]; dup {
			return ValidationError{field + ".name", fmt.Sprintf("%q already used by sector %q", name, prev)}
		}
		owner[name] = name

		for _, syn := range s.Synonyms {
			syn = normalizePhrase(syn)
			if syn == "" {
				return ValidationError{field + ".synonyms", "empty synonym"}
			}
			// 동일 섹터 내 중복은 허용, 다른 섹터와 충돌은 실패
			if prev, dup := owner[syn]; dup && prev != name {
				return ValidationError{field + ".synonyms", fmt.Sprintf("%q already maps to %q", syn, prev)}
			}
			owner[syn] = name
		}
		for _, sym := range s.Symbols {
			if strings.TrimSpace(sym) == "" || strings.ContainsAny(sym, " \t") {
				return ValidationError{field + ".symbols", fmt.Sprintf("invalid symbol %q", sym)}
			}
		}
	}

	// === Thresholds ===
	seen := make(map[string]bool)
	for i, t := range f.Thresholds {
		field := fmt.Sprintf("thresholds[%d]", i)
		if !t.Bound.Valid() {
			return ValidationError{field + ".bound", fmt.Sprintf("unknown bound %q", t.Bound)}
		}
		if t.Value < 0 {
			return ValidationError{field + ".value", "must be >= 0"}
		}
		if t.Bound == BoundDividendYieldMin && t.Value > 1 {
			return ValidationError{field + ".value", "dividend yield is a fraction (<= 1)"}
		}
		if len(t.Phrases) == 0 {
			return ValidationError{field + ".phrases", "at least one phrase required"}
		}
		for _, p := range t.Phrases {
			p = normalizePhrase(p)
			if p == "" {
				return ValidationError{field + ".phrases", "empty phrase"}
			}
			if seen[p] {
				return ValidationError{field + ".phrases", fmt.Sprintf("duplicate phrase %q", p)}
			}
			seen[p] = true
		}
	}

	return nil
}
