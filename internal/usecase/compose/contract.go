package compose

import (
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
)

// Selector maps a panel selection to registry ids.
type Selector interface {
	SelectByMode(sel mode.Selection) []int
}

// ResolvedSource looks up resolved queries by parent or by resolved id.
type ResolvedSource interface {
	QueryObjsFor(ids []int) []query.Resolved
	Get(id int) (query.Resolved, bool)
}

// FilterSource supplies the active dashboard filters. A nil ids slice means all.
type FilterSource interface {
	BoolFilter(ids []int) clause.BoolFilter
}
