package db

import "github.com/kailas-cloud/facetdash/internal/domain/search/clause"

// TermsQuery is the input for a top-terms aggregation.
type TermsQuery struct {
	IndexName string
	Field     string
	Size      int
	// Query and Filter scope the documents counted; nil means everything.
	Query  clause.Query
	Filter clause.Filter
}

// TermCount is one group of a terms aggregation.
type TermCount struct {
	Value string
	Count int64
}
