package resolve

import (
	"context"

	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/facet"
)

// QueryLister lists live registry queries in registry order.
type QueryLister interface {
	List() []query.Query
}

// FilterSource supplies the active dashboard filters. A nil ids slice means all.
type FilterSource interface {
	BoolFilter(ids []int) clause.BoolFilter
}

// TermsSource runs the terms aggregation behind topN queries.
type TermsSource interface {
	TopTerms(ctx context.Context, req facet.TermsRequest) ([]facet.Term, error)
}

// Strategy expands one registry query into concrete leaf queries.
type Strategy interface {
	Resolve(ctx context.Context, q query.Query) ([]query.Resolved, error)
}
