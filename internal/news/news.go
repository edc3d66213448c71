package news

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/stockpilot/pkg/logger"
)

// Article is one headline about a symbol
type Article struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	Source      string    `json:"source"` // which Source returned it
	PublishedAt time.Time `json:"published_at"`
}

// Source fetches recent articles for a symbol
// ⭐ SSOT: 뉴스 조회 인터페이스
type Source interface {
	Fetch(ctx context.Context, symbol string, limit int) ([]Article, error)
	Name() string
}

// Fallback tries sources in order and returns the first non-empty result
type Fallback struct {
	sources []Source
	logger  *logger.Logger
}

// NewFallback creates a fallback chain
func NewFallback(log *logger.Logger, sources ...Source) *Fallback {
	return &Fallback{sources: sources, logger: log.Component("news")}
}

// Name returns the chained source names
func (f *Fallback) Name() string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

// Fetch returns the first source's articles that is not empty. An error is
// returned only when every source failed.
func (f *Fallback) Fetch(ctx context.Context, symbol string, limit int) ([]Article, error) {
	var errs []error
	for _, src := range f.sources {
		articles, err := src.Fetch(ctx, symbol, limit)
		if err != nil {
			f.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"source": src.Name(),
				"symbol": symbol,
			}).WithError(err).Warn("news source failed")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if len(articles) > 0 {
			return articles, nil
		}
	}

	if len(errs) == len(f.sources) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []Article{}, nil
}

// newestFirst sorts by publish time (newest first), drops empty headlines
// and duplicate headlines, and applies limit
func newestFirst(articles []Article, limit int) []Article {
	seen := make(map[string]bool, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		key := strings.ToLower(strings.TrimSpace(a.Headline))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
