// Package compose builds the combined query/filter tree for a panel request.
package compose

import (
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/entry"
	"github.com/kailas-cloud/facetdash/internal/metrics"
)

// Request is everything a panel contributes to its search criteria.
type Request struct {
	Selection mode.Selection
	// AdHoc entries are required filters (panel and stack query strings).
	AdHoc []entry.Entry
	// Stacked entries scope one series of a multi-series panel.
	Stacked []entry.Entry
	// Highlight fields keep registry queries on the scored side.
	Highlight []string
}

// Parts is the composed result. Filter.Must is never empty.
type Parts struct {
	Query  clause.Query
	Filter clause.BoolFilter
}

// Engine composes registry queries, dashboard filters and panel entries.
type Engine struct {
	selector Selector
	queries  ResolvedSource
	filters  FilterSource
}

// New creates a composition engine.
func New(selector Selector, queries ResolvedSource, filters FilterSource) *Engine {
	return &Engine{selector: selector, queries: queries, filters: filters}
}

// Compose builds the {query, filter} pair for req.
//
// Without highlight fields the registry queries are moved into a cached
// filter and the query collapses to match-all. With highlight fields they stay
// in a scored bool should, restricted to _all plus the requested fields.
func (e *Engine) Compose(req Request) Parts {
	resolved := e.queries.QueryObjsFor(e.selector.SelectByMode(req.Selection))
	hasQueries := len(resolved) > 0
	if len(resolved) == 1 && resolved[0].IsMatchAll() {
		hasQueries = false
	}

	var highlight []string
	if len(req.Highlight) > 0 {
		highlight = append([]string{clause.AllFields}, req.Highlight...)
	}

	var should []clause.Query
	if hasQueries {
		should = make([]clause.Query, 0, len(resolved))
		for _, rq := range resolved {
			should = append(should, clause.WithFields(LeafClause(rq), highlight))
		}
	}
	stackedQueries, stackedFilters := splitStacked(req.Stacked, highlight)

	filter := clause.BoolFilter{}
	if req.Selection.Mode != mode.Index && e.filters != nil {
		filter = e.filters.BoolFilter(nil).Clone()
	}
	filter.Must = append(filter.Must, adHocFilters(req.AdHoc, true)...)

	var q clause.Query = clause.MatchAll{}
	placement := "none"
	if highlight == nil {
		if hasQueries {
			filter.Must = append(filter.Must, clause.QueryFilter{Query: clause.Bool{Should: should}, Cache: true})
			placement = "filter"
		}
		for _, sq := range stackedQueries {
			filter.Should = append(filter.Should, asFilter(sq))
		}
	} else if len(should)+len(stackedQueries) > 0 {
		q = clause.Bool{Should: append(should, stackedQueries...)}
		placement = "query"
	}
	filter.Should = append(filter.Should, stackedFilters...)

	if len(filter.Must) == 0 {
		filter.Must = append(filter.Must, clause.MatchAllFilter{})
	}

	metrics.ComposeTotal.WithLabelValues(placement).Inc()
	return Parts{Query: q, Filter: filter}
}

// FacetFilter wraps the composed pair as a single filter. Highlight is ignored.
func (e *Engine) FacetFilter(req Request) clause.Filter {
	req.Highlight = nil
	p := e.Compose(req)
	return clause.QueryFilter{Query: clause.Filtered{Query: p.Query, Filter: p.Filter}}
}

// FacetQuery wraps the composed pair as a filtered query. Highlight is ignored.
func (e *Engine) FacetQuery(req Request) clause.Query {
	req.Highlight = nil
	return e.PanelQuery(req)
}

// PanelQuery wraps the composed pair as a filtered query, honoring highlight.
func (e *Engine) PanelQuery(req Request) clause.Query {
	p := e.Compose(req)
	return clause.Filtered{Query: p.Query, Filter: p.Filter}
}

// FacetFilterByQueryID builds the filter for one resolved query: dashboard
// filters, the ad-hoc entries and that query. ok is false for an unknown id.
func (e *Engine) FacetFilterByQueryID(id int, adHoc []entry.Entry) (clause.Filter, bool) {
	rq, ok := e.queries.Get(id)
	if !ok {
		return nil, false
	}

	filter := clause.BoolFilter{}
	if e.filters != nil {
		filter = e.filters.BoolFilter(nil).Clone()
	}
	filter.Must = append(filter.Must, adHocFilters(adHoc, false)...)
	if len(filter.Must) == 0 {
		filter.Must = append(filter.Must, clause.MatchAllFilter{})
	}

	return clause.QueryFilter{Query: clause.Filtered{Query: LeafClause(rq), Filter: filter}}, true
}

// LeafClause converts a resolved query into its query clause.
func LeafClause(rq query.Resolved) clause.Query {
	switch rq.Type {
	case query.Regex:
		return clause.Regexp{Field: clause.AllFields, Pattern: rq.Query}
	case query.Lucene:
		return queryString(rq.Query)
	default:
		return queryString(rq.Query)
	}
}

func queryString(text string) clause.QueryString {
	if query.IsMatchAllText(text) {
		text = query.DefaultText
	}
	return clause.QueryString{Query: text}
}

// adHocFilters converts required entries. Blank text and unknown kinds are skipped.
func adHocFilters(entries []entry.Entry, cache bool) []clause.Filter {
	out := make([]clause.Filter, 0, len(entries))
	for _, en := range entries {
		switch v := en.(type) {
		case entry.Text:
			if v.IsBlank() {
				continue
			}
			out = append(out, clause.QueryFilter{Query: clause.QueryString{Query: v.Query}, Cache: cache})
		case entry.Term:
			out = append(out, clause.TermFilter{Field: v.Field, Value: v.Value})
		case entry.Terms:
			out = append(out, clause.TermsFilter{Field: v.Field, Values: v.Values})
		case entry.Unknown:
		default:
		}
	}
	return out
}

// splitStacked separates scored stacked entries (text, terms) from
// filter-only ones (term). Unknown kinds are dropped.
func splitStacked(entries []entry.Entry, highlight []string) ([]clause.Query, []clause.Filter) {
	var queries []clause.Query
	var filters []clause.Filter
	for _, en := range entries {
		switch v := en.(type) {
		case entry.Text:
			if v.IsBlank() {
				continue
			}
			queries = append(queries, clause.WithFields(clause.QueryString{Query: v.Query}, highlight))
		case entry.Terms:
			queries = append(queries, clause.Terms{Field: v.Field, Values: v.Values})
		case entry.Term:
			filters = append(filters, clause.TermFilter{Field: v.Field, Value: v.Value})
		case entry.Unknown:
		default:
		}
	}
	return queries, filters
}

// asFilter moves a scored stacked clause to the filter side.
func asFilter(q clause.Query) clause.Filter {
	if t, ok := q.(clause.Terms); ok {
		return clause.TermsFilter{Field: t.Field, Values: t.Values}
	}
	return clause.QueryFilter{Query: q, Cache: true}
}
