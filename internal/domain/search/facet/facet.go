// Package facet describes the term aggregation used to expand abstract queries.
package facet

import "github.com/kailas-cloud/facetdash/internal/domain/search/clause"

// TermsRequest asks for the most frequent values of Field among documents
// matching Query narrowed by Filter.
type TermsRequest struct {
	Field  string
	Size   int
	Query  clause.Query
	Filter clause.Filter
}

// Term is one distinct value with its document count.
type Term struct {
	Value string
	Count int64
}
