package facetdash

import (
	"context"
	"fmt"
	"time"
)

// DashboardService operates on one named dashboard.
type DashboardService struct {
	name string
	svc  dashboardUseCase
	obs  *observer
}

// Name returns the dashboard name.
func (d *DashboardService) Name() string { return d.name }

// --- Queries ---

// Queries lists the registry in id order.
func (d *DashboardService) Queries(ctx context.Context) (qs []Query, err error) {
	start := time.Now()
	defer func() { d.obs.observe("queries.list", d.name, start, err) }()

	qs, err = d.svc.Queries(ctx, d.name)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	return qs, nil
}

// FindQuery returns the first query whose text equals text, or an error
// wrapping ErrQueryNotFound.
func (d *DashboardService) FindQuery(ctx context.Context, text string) (q Query, err error) {
	start := time.Now()
	defer func() { d.obs.observe("queries.find", d.name, start, err) }()

	q, err = d.svc.FindQuery(ctx, d.name, text)
	if err != nil {
		return Query{}, fmt.Errorf("find query: %w", err)
	}
	return q, nil
}

// AddQuery creates a query. Unset fields take their defaults.
func (d *DashboardService) AddQuery(ctx context.Context, spec QuerySpec) (q Query, err error) {
	start := time.Now()
	defer func() { d.obs.observe("queries.add", d.name, start, err) }()

	q, err = d.svc.AddQuery(ctx, d.name, spec)
	if err != nil {
		return Query{}, fmt.Errorf("add query: %w", err)
	}
	return q, nil
}

// UpdateQuery merges spec into query id, or creates it when absent.
func (d *DashboardService) UpdateQuery(ctx context.Context, id int, spec QuerySpec) (q Query, err error) {
	start := time.Now()
	defer func() { d.obs.observe("queries.update", d.name, start, err) }()

	q, err = d.svc.UpdateQuery(ctx, d.name, id, spec)
	if err != nil {
		return Query{}, fmt.Errorf("update query %d: %w", id, err)
	}
	return q, nil
}

// RemoveQuery deletes query id and frees it for reuse.
func (d *DashboardService) RemoveQuery(ctx context.Context, id int) (err error) {
	start := time.Now()
	defer func() { d.obs.observe("queries.remove", d.name, start, err) }()

	if err = d.svc.RemoveQuery(ctx, d.name, id); err != nil {
		return fmt.Errorf("remove query %d: %w", id, err)
	}
	return nil
}

// Select returns the registry ids a selection picks.
func (d *DashboardService) Select(ctx context.Context, sel Selection) (ids []int, err error) {
	start := time.Now()
	defer func() { d.obs.observe("queries.select", d.name, start, err) }()

	ids, err = d.svc.Select(ctx, d.name, sel)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return ids, nil
}

// Resolve expands topN queries into leaves and returns them with their generation.
func (d *DashboardService) Resolve(ctx context.Context) (rs []Resolved, gen uint64, err error) {
	start := time.Now()
	defer func() { d.obs.observe("queries.resolve", d.name, start, err) }()

	rs, gen, err = d.svc.Resolve(ctx, d.name)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve: %w", err)
	}
	return rs, gen, nil
}

// --- Composition ---

// Compose builds the query/filter pair for a panel.
func (d *DashboardService) Compose(ctx context.Context, req ComposeRequest) (c Composition, err error) {
	start := time.Now()
	defer func() { d.obs.observe("compose", d.name, start, err) }()

	c, err = d.svc.Compose(ctx, d.name, req)
	if err != nil {
		return Composition{}, fmt.Errorf("compose: %w", err)
	}
	return c, nil
}

// FacetFilter returns the composed filter alone.
func (d *DashboardService) FacetFilter(ctx context.Context, req ComposeRequest) (f FilterClause, err error) {
	start := time.Now()
	defer func() { d.obs.observe("compose.facet_filter", d.name, start, err) }()

	f, err = d.svc.FacetFilter(ctx, d.name, req)
	if err != nil {
		return nil, fmt.Errorf("facet filter: %w", err)
	}
	return f, nil
}

// FacetQuery returns the composed pair as one filtered query.
func (d *DashboardService) FacetQuery(ctx context.Context, req ComposeRequest) (q QueryClause, err error) {
	start := time.Now()
	defer func() { d.obs.observe("compose.facet_query", d.name, start, err) }()

	q, err = d.svc.FacetQuery(ctx, d.name, req)
	if err != nil {
		return nil, fmt.Errorf("facet query: %w", err)
	}
	return q, nil
}

// PanelQuery returns the filtered query a panel sends to the search backend.
func (d *DashboardService) PanelQuery(ctx context.Context, req ComposeRequest) (q QueryClause, err error) {
	start := time.Now()
	defer func() { d.obs.observe("compose.panel", d.name, start, err) }()

	q, err = d.svc.PanelQuery(ctx, d.name, req)
	if err != nil {
		return nil, fmt.Errorf("panel query: %w", err)
	}
	return q, nil
}

// FacetFilterByQueryID composes a filter that scopes results to one registry query.
func (d *DashboardService) FacetFilterByQueryID(ctx context.Context, id int, adHoc ...Entry) (f FilterClause, err error) {
	start := time.Now()
	defer func() { d.obs.observe("compose.facet_filter_by_id", d.name, start, err) }()

	f, err = d.svc.FacetFilterByQueryID(ctx, d.name, id, adHoc)
	if err != nil {
		return nil, fmt.Errorf("facet filter for query %d: %w", id, err)
	}
	return f, nil
}

// --- Filters ---

// Filters lists the dashboard filters in id order.
func (d *DashboardService) Filters(ctx context.Context) (fs []Filter, err error) {
	start := time.Now()
	defer func() { d.obs.observe("filters.list", d.name, start, err) }()

	fs, err = d.svc.Filters(ctx, d.name)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return fs, nil
}

// FiltersByType lists the dashboard filters of type t in id order.
func (d *DashboardService) FiltersByType(ctx context.Context, t FilterType) (fs []Filter, err error) {
	start := time.Now()
	defer func() { d.obs.observe("filters.by_type", d.name, start, err) }()

	fs, err = d.svc.FiltersByType(ctx, d.name, t)
	if err != nil {
		return nil, fmt.Errorf("list %s filters: %w", t, err)
	}
	return fs, nil
}

// AddFilter appends a filter and returns it with its assigned id.
// f.Active is stored as given; the zero value adds the filter disabled.
func (d *DashboardService) AddFilter(ctx context.Context, f Filter) (Filter, error) {
	return d.setFilter(ctx, "filters.add", nil, f)
}

// SetFilter replaces filter id.
func (d *DashboardService) SetFilter(ctx context.Context, id int, f Filter) (Filter, error) {
	return d.setFilter(ctx, "filters.set", &id, f)
}

func (d *DashboardService) setFilter(ctx context.Context, op string, id *int, f Filter) (out Filter, err error) {
	start := time.Now()
	defer func() { d.obs.observe(op, d.name, start, err) }()

	out, err = d.svc.SetFilter(ctx, d.name, id, f)
	if err != nil {
		return Filter{}, fmt.Errorf("set filter: %w", err)
	}
	return out, nil
}

// RemoveFilter deletes filter id.
func (d *DashboardService) RemoveFilter(ctx context.Context, id int) (err error) {
	start := time.Now()
	defer func() { d.obs.observe("filters.remove", d.name, start, err) }()

	if err = d.svc.RemoveFilter(ctx, d.name, id); err != nil {
		return fmt.Errorf("remove filter %d: %w", id, err)
	}
	return nil
}
