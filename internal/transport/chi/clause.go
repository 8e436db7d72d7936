package chi

import (
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
)

type object = map[string]any

// queryJSON renders a query clause as an object keyed by its variant name.
func queryJSON(q clause.Query) any {
	switch v := q.(type) {
	case nil:
		return nil
	case clause.MatchAll:
		return object{"match_all": object{}}
	case clause.QueryString:
		body := object{"query": v.Query}
		if len(v.Fields) > 0 {
			body["fields"] = v.Fields
		}
		return object{"query_string": body}
	case clause.Regexp:
		return object{"regexp": object{v.Field: v.Pattern}}
	case clause.Terms:
		return object{"terms": object{v.Field: v.Values}}
	case clause.Bool:
		return object{"bool": boolJSON(v.Must, v.Should, v.MustNot, queryJSON)}
	case clause.Filtered:
		return object{"filtered": object{"query": queryJSON(v.Query), "filter": filterJSON(v.Filter)}}
	default:
		return nil
	}
}

// filterJSON renders a filter clause as an object keyed by its variant name.
func filterJSON(f clause.Filter) any {
	switch v := f.(type) {
	case nil:
		return nil
	case clause.MatchAllFilter:
		return object{"match_all": object{}}
	case clause.QueryFilter:
		body := object{"query": queryJSON(v.Query)}
		if v.Cache {
			body["_cache"] = true
		}
		return object{"query": body}
	case clause.TermFilter:
		return object{"term": object{v.Field: v.Value}}
	case clause.TermsFilter:
		return object{"terms": object{v.Field: v.Values}}
	case clause.ExistsFilter:
		return object{"exists": object{"field": v.Field}}
	case clause.RangeFilter:
		bounds := object{}
		if v.From != "" {
			bounds["from"] = v.From
		}
		if v.To != "" {
			bounds["to"] = v.To
		}
		return object{"range": object{v.Field: bounds}}
	case clause.BoolFilter:
		return object{"bool": boolJSON(v.Must, v.Should, v.MustNot, filterJSON)}
	default:
		return nil
	}
}

// boolJSON renders the non-empty clause lists of a bool node.
func boolJSON[T any](must, should, mustNot []T, render func(T) any) object {
	out := object{}
	for key, list := range map[string][]T{"must": must, "should": should, "must_not": mustNot} {
		if len(list) == 0 {
			continue
		}
		items := make([]any, len(list))
		for i, c := range list {
			items[i] = render(c)
		}
		out[key] = items
	}
	return out
}
