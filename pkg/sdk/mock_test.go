package facetdash

import (
	"context"

	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/entry"
	"github.com/kailas-cloud/facetdash/internal/usecase/compose"
	dashboarduc "github.com/kailas-cloud/facetdash/internal/usecase/dashboard"
	healthuc "github.com/kailas-cloud/facetdash/internal/usecase/health"
)

// --- dashboardUseCase mock ---

type mockDashboardUC struct {
	listFn   func(ctx context.Context) ([]string, error)
	deleteFn func(ctx context.Context, name string) error

	queriesFn     func(ctx context.Context, name string) ([]query.Query, error)
	findQueryFn   func(ctx context.Context, name, text string) (query.Query, error)
	addQueryFn    func(ctx context.Context, name string, spec query.Spec) (query.Query, error)
	updateQueryFn func(ctx context.Context, name string, id int, spec query.Spec) (query.Query, error)
	removeQueryFn func(ctx context.Context, name string, id int) error
	selectFn      func(ctx context.Context, name string, sel mode.Selection) ([]int, error)
	resolveFn     func(ctx context.Context, name string) ([]query.Resolved, uint64, error)

	composeFn     func(ctx context.Context, name string, req compose.Request) (dashboarduc.Composition, error)
	facetFilterFn func(ctx context.Context, name string, req compose.Request) (clause.Filter, error)
	facetQueryFn  func(ctx context.Context, name string, req compose.Request) (clause.Query, error)
	panelQueryFn  func(ctx context.Context, name string, req compose.Request) (clause.Query, error)
	byQueryIDFn   func(ctx context.Context, name string, id int, adHoc []entry.Entry) (clause.Filter, error)

	filtersFn      func(ctx context.Context, name string) ([]filterset.Filter, error)
	byTypeFn       func(ctx context.Context, name string, t filterset.Type) ([]filterset.Filter, error)
	setFilterFn    func(ctx context.Context, name string, id *int, f filterset.Filter) (filterset.Filter, error)
	removeFilterFn func(ctx context.Context, name string, id int) error
}

func (m *mockDashboardUC) List(ctx context.Context) ([]string, error) {
	return m.listFn(ctx)
}

func (m *mockDashboardUC) Delete(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

func (m *mockDashboardUC) Queries(ctx context.Context, name string) ([]query.Query, error) {
	return m.queriesFn(ctx, name)
}

func (m *mockDashboardUC) FindQuery(ctx context.Context, name, text string) (query.Query, error) {
	return m.findQueryFn(ctx, name, text)
}

func (m *mockDashboardUC) AddQuery(ctx context.Context, name string, spec query.Spec) (query.Query, error) {
	return m.addQueryFn(ctx, name, spec)
}

func (m *mockDashboardUC) UpdateQuery(
	ctx context.Context, name string, id int, spec query.Spec,
) (query.Query, error) {
	return m.updateQueryFn(ctx, name, id, spec)
}

func (m *mockDashboardUC) RemoveQuery(ctx context.Context, name string, id int) error {
	return m.removeQueryFn(ctx, name, id)
}

func (m *mockDashboardUC) Select(ctx context.Context, name string, sel mode.Selection) ([]int, error) {
	return m.selectFn(ctx, name, sel)
}

func (m *mockDashboardUC) Resolve(ctx context.Context, name string) ([]query.Resolved, uint64, error) {
	return m.resolveFn(ctx, name)
}

func (m *mockDashboardUC) Compose(
	ctx context.Context, name string, req compose.Request,
) (dashboarduc.Composition, error) {
	return m.composeFn(ctx, name, req)
}

func (m *mockDashboardUC) FacetFilter(ctx context.Context, name string, req compose.Request) (clause.Filter, error) {
	return m.facetFilterFn(ctx, name, req)
}

func (m *mockDashboardUC) FacetQuery(ctx context.Context, name string, req compose.Request) (clause.Query, error) {
	return m.facetQueryFn(ctx, name, req)
}

func (m *mockDashboardUC) PanelQuery(ctx context.Context, name string, req compose.Request) (clause.Query, error) {
	return m.panelQueryFn(ctx, name, req)
}

func (m *mockDashboardUC) FacetFilterByQueryID(
	ctx context.Context, name string, id int, adHoc []entry.Entry,
) (clause.Filter, error) {
	return m.byQueryIDFn(ctx, name, id, adHoc)
}

func (m *mockDashboardUC) FiltersByType(
	ctx context.Context, name string, t filterset.Type,
) ([]filterset.Filter, error) {
	return m.byTypeFn(ctx, name, t)
}

func (m *mockDashboardUC) Filters(ctx context.Context, name string) ([]filterset.Filter, error) {
	return m.filtersFn(ctx, name)
}

func (m *mockDashboardUC) SetFilter(
	ctx context.Context, name string, id *int, f filterset.Filter,
) (filterset.Filter, error) {
	return m.setFilterFn(ctx, name, id, f)
}

func (m *mockDashboardUC) RemoveFilter(ctx context.Context, name string, id int) error {
	return m.removeFilterFn(ctx, name, id)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}
