package provider

import (
	"context"
	"errors"
	"log"
	"time"

	"macro-calendar/internal/domain"
)

// Searcher is implemented by every news source.
type Searcher interface {
	SearchArticles(ctx context.Context, query string, from time.Time) ([]domain.Article, error)
}

// MultiSearcher concatenates results from several searchers in order. A
// searcher that fails is skipped; the query fails only if all of them do.
type MultiSearcher struct {
	searchers []Searcher
}

func NewMultiSearcher(searchers ...Searcher) *MultiSearcher {
	return &MultiSearcher{searchers: searchers}
}

func (m *MultiSearcher) SearchArticles(ctx context.Context, query string, from time.Time) ([]domain.Article, error) {
	var (
		articles []domain.Article
		errs     []error
	)
	for _, s := range m.searchers {
		found, err := s.SearchArticles(ctx, query, from)
		if err != nil {
			log.Printf("news searcher failed for %q: %v", query, err)
			errs = append(errs, err)
			continue
		}
		articles = append(articles, found...)
	}
	if len(m.searchers) > 0 && len(errs) == len(m.searchers) {
		return nil, errors.Join(errs...)
	}
	return articles, nil
}
