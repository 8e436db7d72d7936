package facetdash

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/entry"
	"github.com/kailas-cloud/facetdash/internal/usecase/compose"
	dashboarduc "github.com/kailas-cloud/facetdash/internal/usecase/dashboard"
)

func newDashboard(m *mockDashboardUC) *DashboardService {
	return &DashboardService{name: "ops", svc: m}
}

// --- Queries ---

func TestDashboardService_AddQuery(t *testing.T) {
	mock := &mockDashboardUC{
		addQueryFn: func(_ context.Context, name string, spec query.Spec) (query.Query, error) {
			if name != "ops" {
				t.Errorf("name = %q, want ops", name)
			}
			return query.Query{ID: 1, Type: *spec.Type, Query: *spec.Query, Enable: true}, nil
		},
	}

	q, err := newDashboard(mock).AddQuery(context.Background(), QuerySpec{
		Type:  Ptr(Lucene),
		Query: Ptr("status:500"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != 1 || q.Query != "status:500" {
		t.Errorf("query = %+v", q)
	}
}

func TestDashboardService_AddQuery_Invalid(t *testing.T) {
	mock := &mockDashboardUC{
		addQueryFn: func(_ context.Context, _ string, _ query.Spec) (query.Query, error) {
			return query.Query{}, ErrInvalidQuery
		},
	}

	_, err := newDashboard(mock).AddQuery(context.Background(), QuerySpec{Type: Ptr(QueryType("bogus"))})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestDashboardService_UpdateQuery(t *testing.T) {
	mock := &mockDashboardUC{
		updateQueryFn: func(_ context.Context, _ string, id int, spec query.Spec) (query.Query, error) {
			return query.Query{ID: id, Alias: *spec.Alias}, nil
		},
	}

	q, err := newDashboard(mock).UpdateQuery(context.Background(), 4, QuerySpec{Alias: Ptr("errors")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != 4 || q.Alias != "errors" {
		t.Errorf("query = %+v", q)
	}
}

func TestDashboardService_RemoveQuery_NotFound(t *testing.T) {
	mock := &mockDashboardUC{
		removeQueryFn: func(_ context.Context, _ string, _ int) error {
			return ErrQueryNotFound
		},
	}

	err := newDashboard(mock).RemoveQuery(context.Background(), 9)
	if !errors.Is(err, ErrQueryNotFound) {
		t.Errorf("err = %v, want ErrQueryNotFound", err)
	}
}

func TestDashboardService_Queries(t *testing.T) {
	want := []query.Query{{ID: 0, Query: "*"}, {ID: 2, Query: "a"}}
	mock := &mockDashboardUC{
		queriesFn: func(_ context.Context, _ string) ([]query.Query, error) {
			return want, nil
		},
	}

	got, err := newDashboard(mock).Queries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboardService_Select(t *testing.T) {
	mock := &mockDashboardUC{
		selectFn: func(_ context.Context, _ string, sel mode.Selection) ([]int, error) {
			if sel.Mode != mode.Pinned {
				t.Errorf("mode = %q, want pinned", sel.Mode)
			}
			return []int{3}, nil
		},
	}

	ids, err := newDashboard(mock).Select(context.Background(), Selection{Mode: ModePinned})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Errorf("ids = %v, want [3]", ids)
	}
}

func TestDashboardService_Resolve_Error(t *testing.T) {
	mock := &mockDashboardUC{
		resolveFn: func(_ context.Context, _ string) ([]query.Resolved, uint64, error) {
			return nil, 0, ErrResolution
		},
	}

	_, gen, err := newDashboard(mock).Resolve(context.Background())
	if !errors.Is(err, ErrResolution) {
		t.Errorf("err = %v, want ErrResolution", err)
	}
	if gen != 0 {
		t.Errorf("gen = %d, want 0", gen)
	}
}

// --- Composition ---

func TestDashboardService_Compose(t *testing.T) {
	want := dashboarduc.Composition{
		Parts: compose.Parts{
			Query:  clause.MatchAll{},
			Filter: clause.BoolFilter{Must: []clause.Filter{clause.MatchAllFilter{}}},
		},
		Generation: 7,
	}
	mock := &mockDashboardUC{
		composeFn: func(_ context.Context, _ string, req compose.Request) (dashboarduc.Composition, error) {
			if len(req.AdHoc) != 1 || len(req.Highlight) != 1 {
				t.Errorf("request = %+v", req)
			}
			return want, nil
		},
	}

	got, err := newDashboard(mock).Compose(context.Background(), ComposeRequest{
		Selection: Selection{Mode: ModeAll},
		AdHoc:     Texts("status:500", "  "),
		Highlight: []string{"message"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("composition mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboardService_FacetWrappers(t *testing.T) {
	filtered := clause.Filtered{Query: clause.MatchAll{}, Filter: clause.MatchAllFilter{}}
	mock := &mockDashboardUC{
		facetFilterFn: func(_ context.Context, _ string, _ compose.Request) (clause.Filter, error) {
			return clause.MatchAllFilter{}, nil
		},
		facetQueryFn: func(_ context.Context, _ string, _ compose.Request) (clause.Query, error) {
			return filtered, nil
		},
		panelQueryFn: func(_ context.Context, _ string, _ compose.Request) (clause.Query, error) {
			return filtered, nil
		},
	}
	d := newDashboard(mock)
	ctx := context.Background()

	if f, err := d.FacetFilter(ctx, ComposeRequest{}); err != nil || f != (clause.MatchAllFilter{}) {
		t.Errorf("FacetFilter = %v, %v", f, err)
	}
	if q, err := d.FacetQuery(ctx, ComposeRequest{}); err != nil || !cmp.Equal(q, clause.Query(filtered)) {
		t.Errorf("FacetQuery = %v, %v", q, err)
	}
	if q, err := d.PanelQuery(ctx, ComposeRequest{}); err != nil || !cmp.Equal(q, clause.Query(filtered)) {
		t.Errorf("PanelQuery = %v, %v", q, err)
	}
}

func TestDashboardService_FacetFilterByQueryID(t *testing.T) {
	mock := &mockDashboardUC{
		byQueryIDFn: func(_ context.Context, _ string, id int, adHoc []entry.Entry) (clause.Filter, error) {
			if id != 2 {
				t.Errorf("id = %d, want 2", id)
			}
			if len(adHoc) != 1 {
				t.Errorf("adHoc = %v, want one entry", adHoc)
			}
			return clause.TermFilter{Field: "host", Value: "web-1"}, nil
		},
	}

	f, err := newDashboard(mock).FacetFilterByQueryID(context.Background(), 2, TermEntry{Field: "host", Value: "web-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != (clause.TermFilter{Field: "host", Value: "web-1"}) {
		t.Errorf("filter = %v", f)
	}
}

// --- Filters ---

func TestDashboardService_AddAndSetFilter(t *testing.T) {
	var gotIDs []*int
	mock := &mockDashboardUC{
		setFilterFn: func(_ context.Context, _ string, id *int, f filterset.Filter) (filterset.Filter, error) {
			gotIDs = append(gotIDs, id)
			if id == nil {
				f.ID = 5
			} else {
				f.ID = *id
			}
			return f, nil
		},
	}
	d := newDashboard(mock)
	ctx := context.Background()

	added, err := d.AddFilter(ctx, Filter{Type: FilterExists, Field: "host", Active: true})
	if err != nil {
		t.Fatalf("AddFilter: %v", err)
	}
	if added.ID != 5 {
		t.Errorf("added id = %d, want 5", added.ID)
	}

	set, err := d.SetFilter(ctx, 1, Filter{Type: FilterField, Field: "host", Query: "web-*"})
	if err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if set.ID != 1 {
		t.Errorf("set id = %d, want 1", set.ID)
	}

	if len(gotIDs) != 2 || gotIDs[0] != nil || gotIDs[1] == nil || *gotIDs[1] != 1 {
		t.Errorf("ids passed = %v", gotIDs)
	}
}

func TestDashboardService_RemoveFilter_NotFound(t *testing.T) {
	mock := &mockDashboardUC{
		removeFilterFn: func(_ context.Context, _ string, _ int) error {
			return ErrFilterNotFound
		},
	}

	err := newDashboard(mock).RemoveFilter(context.Background(), 3)
	if !errors.Is(err, ErrFilterNotFound) {
		t.Errorf("err = %v, want ErrFilterNotFound", err)
	}
}

func TestDashboardService_Filters(t *testing.T) {
	mock := &mockDashboardUC{
		filtersFn: func(_ context.Context, _ string) ([]filterset.Filter, error) {
			return nil, errors.New("db down")
		},
	}

	if _, err := newDashboard(mock).Filters(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDashboardService_FiltersByType(t *testing.T) {
	mock := &mockDashboardUC{
		byTypeFn: func(_ context.Context, name string, ft filterset.Type) ([]filterset.Filter, error) {
			if name != "ops" || ft != filterset.Exists {
				t.Errorf("got (%q, %q)", name, ft)
			}
			return []filterset.Filter{{ID: 2, Type: filterset.Exists, Field: "host"}}, nil
		},
	}

	fs, err := newDashboard(mock).FiltersByType(context.Background(), FilterExists)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs) != 1 || fs[0].ID != 2 {
		t.Errorf("filters = %+v", fs)
	}
}

func TestDashboardService_FindQuery(t *testing.T) {
	mock := &mockDashboardUC{
		findQueryFn: func(_ context.Context, _, text string) (query.Query, error) {
			if text == "status:500" {
				return query.Query{ID: 3, Query: text}, nil
			}
			return query.Query{}, ErrQueryNotFound
		},
	}
	d := newDashboard(mock)

	q, err := d.FindQuery(context.Background(), "status:500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != 3 {
		t.Errorf("id = %d, want 3", q.ID)
	}
	if _, err := d.FindQuery(context.Background(), "status:404"); !errors.Is(err, ErrQueryNotFound) {
		t.Errorf("err = %v, want ErrQueryNotFound", err)
	}
}

// --- Observability ---

func TestDashboardService_ObservesOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	mock := &mockDashboardUC{
		removeQueryFn: func(_ context.Context, _ string, id int) error {
			if id == 0 {
				return nil
			}
			return ErrQueryNotFound
		},
	}
	d := &DashboardService{name: "ops", svc: mock, obs: obs}

	_ = d.RemoveQuery(context.Background(), 0)
	_ = d.RemoveQuery(context.Background(), 1)

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("queries.remove", "ok")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("queries.remove", "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}
