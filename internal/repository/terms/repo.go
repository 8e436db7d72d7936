// Package terms looks up the most frequent field values in the search index.
package terms

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdash/internal/db"
	"github.com/kailas-cloud/facetdash/internal/domain/search/facet"
)

// aggregator is the consumer interface for top-terms lookups (ISP).
type aggregator interface {
	AggregateTerms(ctx context.Context, q *db.TermsQuery) ([]db.TermCount, error)
}

// Repo implements resolve.TermsSource over one FT index.
type Repo struct {
	store aggregator
	index string
}

// New creates a terms repository reading from index.
func New(s aggregator, index string) *Repo {
	return &Repo{store: s, index: index}
}

// TopTerms returns up to req.Size values of req.Field, most frequent first.
func (r *Repo) TopTerms(ctx context.Context, req facet.TermsRequest) ([]facet.Term, error) {
	counts, err := r.store.AggregateTerms(ctx, &db.TermsQuery{
		IndexName: r.index,
		Field:     req.Field,
		Size:      req.Size,
		Query:     req.Query,
		Filter:    req.Filter,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s on %s: %w", req.Field, r.index, err)
	}

	out := make([]facet.Term, len(counts))
	for i, c := range counts {
		out[i] = facet.Term{Value: c.Value, Count: c.Count}
	}
	return out, nil
}
