package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/facet"
)

// identity resolves leaf queries to themselves.
type identity struct{}

func (identity) Resolve(_ context.Context, q query.Query) ([]query.Resolved, error) {
	return []query.Resolved{query.Identity(q)}, nil
}

// topN expands a query into one lucene query per top term of its field.
type topN struct {
	terms   TermsSource
	filters FilterSource
}

func (s topN) Resolve(ctx context.Context, q query.Query) ([]query.Resolved, error) {
	if s.terms == nil {
		return nil, fmt.Errorf("no terms source configured for %s queries", query.TopN)
	}
	if q.Field == "" {
		return nil, fmt.Errorf("%s query %d has no field", query.TopN, q.ID)
	}

	var base clause.Query = clause.MatchAll{}
	if !q.IsMatchAll() {
		base = clause.QueryString{Query: q.Query}
	}
	var scope clause.Filter = clause.MatchAllFilter{}
	if s.filters != nil {
		if bf := s.filters.BoolFilter(nil); !bf.IsEmpty() {
			scope = bf
		}
	}

	size := q.Size
	if size <= 0 {
		size = query.DefaultTopNSize
	}

	terms, err := s.terms.TopTerms(ctx, facet.TermsRequest{
		Field:  q.Field,
		Size:   size,
		Query:  base,
		Filter: scope,
	})
	if err != nil {
		return nil, fmt.Errorf("top terms for %s: %w", q.Field, err)
	}
	if len(terms) > size {
		terms = terms[:size]
	}

	colors := query.ColorSteps(q.Color, len(terms))
	out := make([]query.Resolved, 0, len(terms))
	for i, t := range terms {
		out = append(out, query.Resolved{
			Parent: q.ID,
			Type:   query.Lucene,
			Query:  termQuery(q, t.Value),
			Alias:  termAlias(q, t.Value),
			Color:  colors[i],
		})
	}
	return out, nil
}

// termQuery renders field:"term" combined with the base text by the union policy.
func termQuery(q query.Query, term string) string {
	text := q.Field + ":" + quoteTerm(term)
	if q.IsMatchAll() {
		return text
	}
	switch q.Union {
	case query.UnionAnd, query.UnionOr:
		return fmt.Sprintf("%s %s (%s)", text, q.Union, strings.TrimSpace(q.Query))
	default:
		return text
	}
}

// quoteTerm wraps term in double quotes, escaping only backslash and quote
// the way lucene phrases do. Other bytes pass through untouched.
func quoteTerm(term string) string {
	return `"` + termEscaper.Replace(term) + `"`
}

var termEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func termAlias(q query.Query, term string) string {
	switch q.Union {
	case query.UnionAnd, query.UnionOr:
		if !q.IsMatchAll() {
			return fmt.Sprintf("%s (%s)", term, q.Union)
		}
	}
	return term
}
