// Package clause models the abstract query/filter tree handed to search collaborators.
//
// Query clauses are scored; Filter clauses only narrow the result set. Both are
// closed sum types: only the variants in this package implement them.
package clause

// AllFields is the pseudo-field addressing every indexed field.
const AllFields = "_all"

// Query is a scored clause.
type Query interface {
	isQuery()
}

// Filter is an unscored clause.
type Filter interface {
	isFilter()
}

// MatchAll matches every document.
type MatchAll struct{}

// QueryString is a free-text query, optionally restricted to fields.
type QueryString struct {
	Query  string
	Fields []string
}

// Regexp matches a regular expression against a field.
type Regexp struct {
	Field   string
	Pattern string
}

// Terms matches documents whose field equals any of the values.
type Terms struct {
	Field  string
	Values []string
}

// Bool combines query clauses.
type Bool struct {
	Must    []Query
	Should  []Query
	MustNot []Query
}

// Filtered narrows a query by a filter.
type Filtered struct {
	Query  Query
	Filter Filter
}

func (MatchAll) isQuery()    {}
func (QueryString) isQuery() {}
func (Regexp) isQuery()      {}
func (Terms) isQuery()       {}
func (Bool) isQuery()        {}
func (Filtered) isQuery()    {}

// MatchAllFilter lets every document through.
type MatchAllFilter struct{}

// QueryFilter uses a query as a filter. Cache hints the engine to cache the bitset.
type QueryFilter struct {
	Query Query
	Cache bool
}

// TermFilter is an exact single-value match.
type TermFilter struct {
	Field string
	Value string
}

// TermsFilter is an exact match against any of the values.
type TermsFilter struct {
	Field  string
	Values []string
}

// ExistsFilter requires the field to be present.
type ExistsFilter struct {
	Field string
}

// RangeFilter bounds a field; empty bounds are open.
type RangeFilter struct {
	Field string
	From  string
	To    string
}

// BoolFilter combines filter clauses.
type BoolFilter struct {
	Must    []Filter
	Should  []Filter
	MustNot []Filter
}

func (MatchAllFilter) isFilter() {}
func (QueryFilter) isFilter()    {}
func (TermFilter) isFilter()     {}
func (TermsFilter) isFilter()    {}
func (ExistsFilter) isFilter()   {}
func (RangeFilter) isFilter()    {}
func (BoolFilter) isFilter()     {}

// WithFields returns a copy of q restricted to fields. Regexp clauses keep
// their own field; other variants are returned unchanged.
func WithFields(q Query, fields []string) Query {
	if len(fields) == 0 {
		return q
	}
	switch v := q.(type) {
	case QueryString:
		v.Fields = append([]string(nil), fields...)
		return v
	default:
		return q
	}
}

// IsEmpty reports whether the bool filter has no clauses.
func (b BoolFilter) IsEmpty() bool {
	return len(b.Must) == 0 && len(b.Should) == 0 && len(b.MustNot) == 0
}

// Clone copies the clause lists so appends never alias the receiver.
func (b BoolFilter) Clone() BoolFilter {
	return BoolFilter{
		Must:    append([]Filter(nil), b.Must...),
		Should:  append([]Filter(nil), b.Should...),
		MustNot: append([]Filter(nil), b.MustNot...),
	}
}

// IsMatchAll reports whether q is the match-all sentinel.
func IsMatchAll(q Query) bool {
	_, ok := q.(MatchAll)
	return ok
}
