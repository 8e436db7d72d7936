package facetdash

import (
	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/entry"
	"github.com/kailas-cloud/facetdash/internal/usecase/compose"
	dashboarduc "github.com/kailas-cloud/facetdash/internal/usecase/dashboard"
)

// Queries.
type (
	// Query is a named, user-configurable search criterion.
	Query = query.Query
	// QuerySpec is a partial query definition; nil fields are unset.
	QuerySpec = query.Spec
	// QueryType is the kind of a query definition.
	QueryType = query.Type
	// Union combines a topN term with the base query text.
	Union = query.Union
	// Resolved is a concrete leaf query produced by resolution.
	Resolved = query.Resolved
)

// Query types and union policies.
const (
	Lucene    = query.Lucene
	Regex     = query.Regex
	TopN      = query.TopN
	UnionAnd  = query.UnionAnd
	UnionOr   = query.UnionOr
	UnionNone = query.UnionNone
)

// Selection.
type (
	// Mode selects which registry queries a panel uses.
	Mode = mode.Mode
	// Selection is a mode plus explicit ids for ModeSelected.
	Selection = mode.Selection
)

// Selection modes.
const (
	ModeAll      = mode.All
	ModePinned   = mode.Pinned
	ModeUnpinned = mode.Unpinned
	ModeSelected = mode.Selected
	ModeNone     = mode.None
	ModeIndex    = mode.Index
)

// Dashboard filters.
type (
	// Filter is one dashboard-wide filter.
	Filter = filterset.Filter
	// FilterType is the kind of a dashboard filter.
	FilterType = filterset.Type
	// Mandate places a filter in the must, must-not or should list.
	Mandate = filterset.Mandate
)

// Filter types and mandates.
const (
	FilterQueryString = filterset.QueryString
	FilterTerms       = filterset.Terms
	FilterField       = filterset.Field
	FilterExists      = filterset.Exists
	FilterRange       = filterset.Range
	MandateMust       = filterset.Must
	MandateMustNot    = filterset.MustNot
	MandateEither     = filterset.Either
)

// Composition.
type (
	// ComposeRequest is everything a panel contributes to its search criteria.
	ComposeRequest = compose.Request
	// Composition is a composed query/filter pair and the resolution generation it used.
	Composition = dashboarduc.Composition
	// Entry is an ad-hoc or stacked panel entry.
	Entry = entry.Entry
	// TextEntry is a free-text query string entry.
	TextEntry = entry.Text
	// TermEntry is a single-value field entry.
	TermEntry = entry.Term
	// TermsEntry is a multi-value field entry.
	TermsEntry = entry.Terms
	// QueryClause is a scored node of the composed tree.
	QueryClause = clause.Query
	// FilterClause is an unscored node of the composed tree.
	FilterClause = clause.Filter
)

// Texts converts query strings into text entries, skipping blank ones.
func Texts(qs ...string) []Entry {
	return entry.Texts(qs...)
}

// Ptr returns a pointer to v, for filling QuerySpec fields.
func Ptr[T any](v T) *T {
	return &v
}
