package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/facetdash/internal/domain"
	domdash "github.com/kailas-cloud/facetdash/internal/domain/dashboard"
	"github.com/kailas-cloud/facetdash/internal/domain/search/facet"
	dashboarduc "github.com/kailas-cloud/facetdash/internal/usecase/dashboard"
	healthuc "github.com/kailas-cloud/facetdash/internal/usecase/health"
)

// --- Mocks ---

type memRepo struct {
	mu   sync.Mutex
	docs map[string]domdash.Document
}

func (m *memRepo) Load(_ context.Context, name string) (domdash.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[name]
	if !ok {
		return domdash.Document{}, domain.ErrNotFound
	}
	return doc, nil
}

func (m *memRepo) Save(_ context.Context, doc domdash.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.Name] = doc
	return nil
}

func (m *memRepo) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, name)
	return nil
}

func (m *memRepo) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.docs))
	for name := range m.docs {
		names = append(names, name)
	}
	return names, nil
}

type stubTerms struct {
	terms []facet.Term
	err   error
}

func (s *stubTerms) TopTerms(_ context.Context, _ facet.TermsRequest) ([]facet.Term, error) {
	return s.terms, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(_ context.Context) error { return s.err }

type testAPI struct {
	handler http.Handler
	terms   *stubTerms
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	terms := &stubTerms{}
	dashboards := dashboarduc.New(&memRepo{docs: map[string]domdash.Document{}}, terms, nil)
	srv := NewServer(dashboards, healthuc.New(stubPinger{}, nil, ""), nil)

	r := chi.NewRouter()
	srv.Routes(r)
	return &testAPI{handler: r, terms: terms}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	if got := decode[ErrorResponse](t, rr); got.Code != code {
		t.Errorf("code = %s, want %s", got.Code, code)
	}
}

// --- Tests ---

func TestQueries_CRUD(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/dashboards/ops/queries", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	list := decode[listResponse[map[string]any]](t, rr)
	if len(list.Items) != 1 || list.Items[0]["query"] != "*" {
		t.Fatalf("default registry = %+v", list.Items)
	}

	rr = api.do(t, http.MethodPost, "/dashboards/ops/queries", `{"query":"status:500","pin":true}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add: status %d body %s", rr.Code, rr.Body.String())
	}
	added := decode[map[string]any](t, rr)
	if added["id"] != float64(1) || added["color"] != "#EAB839" || added["pin"] != true {
		t.Errorf("added = %+v", added)
	}

	rr = api.do(t, http.MethodPatch, "/dashboards/ops/queries/1", `{"alias":"errors"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status %d", rr.Code)
	}
	if got := decode[map[string]any](t, rr); got["alias"] != "errors" || got["query"] != "status:500" {
		t.Errorf("updated = %+v", got)
	}

	rr = api.do(t, http.MethodGet, "/dashboards/ops/queries/select?mode=pinned", "")
	if diff := cmp.Diff(selectResponse{IDs: []int{1}}, decode[selectResponse](t, rr)); diff != "" {
		t.Errorf("select mismatch (-want +got):\n%s", diff)
	}

	if rr = api.do(t, http.MethodDelete, "/dashboards/ops/queries/1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("remove: status %d", rr.Code)
	}
	expectError(t, api.do(t, http.MethodDelete, "/dashboards/ops/queries/1", ""), http.StatusNotFound, ErrorCodeQueryNotFound)
}

func TestQueries_Errors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   ErrorCode
	}{
		{"bad json", http.MethodPost, "/dashboards/ops/queries", `{"query":`, http.StatusBadRequest, ErrorCodeBadRequest},
		{"bad type", http.MethodPost, "/dashboards/ops/queries", `{"type":"derive"}`, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"bad name", http.MethodGet, "/dashboards/a.b/queries", "", http.StatusBadRequest, ErrorCodeValidationFailed},
		{"bad id", http.MethodPatch, "/dashboards/ops/queries/x", `{}`, http.StatusBadRequest, ErrorCodeBadRequest},
		{"unknown id", http.MethodPatch, "/dashboards/ops/queries/7", `{"alias":"a"}`, http.StatusNotFound, ErrorCodeQueryNotFound},
		{"bad ids", http.MethodGet, "/dashboards/ops/queries/select?mode=selected&ids=1,x", "", http.StatusBadRequest, ErrorCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, api.do(t, tt.method, tt.path, tt.body), tt.status, tt.code)
		})
	}
}

func TestCompose_Parts(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/dashboards/ops/queries", `{"query":"b"}`)

	rr := api.do(t, http.MethodPost, "/dashboards/ops/compose", `{"mode":"all","query_string":["host:a"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}

	want := `{"query":{"match_all":{}},"filter":{"bool":{"must":[` +
		`{"query":{"_cache":true,"query":{"query_string":{"query":"host:a"}}}},` +
		`{"query":{"_cache":true,"query":{"bool":{"should":[{"query_string":{"query":"*"}},{"query_string":{"query":"b"}}]}}}}` +
		`]}},"generation":1}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("body mismatch\ngot:  %s\nwant: %s", got, want)
	}
}

func TestCompose_Wraps(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		wrap    string
		rootKey string
		inner   string
	}{
		{"facet_filter", "filter", "query"},
		{"facet_query", "query", "filtered"},
		{"panel", "query", "filtered"},
	}

	for _, tt := range tests {
		t.Run(tt.wrap, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/dashboards/ops/compose", `{"wrap":"`+tt.wrap+`","highlight":["msg"]}`)
			if rr.Code != http.StatusOK {
				t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
			}
			body := decode[map[string]any](t, rr)
			root, _ := body[tt.rootKey].(map[string]any)
			if _, ok := root[tt.inner]; !ok {
				t.Errorf("expected %s.%s in %+v", tt.rootKey, tt.inner, body)
			}
		})
	}

	expectError(t, api.do(t, http.MethodPost, "/dashboards/ops/compose", `{"wrap":"xml"}`),
		http.StatusBadRequest, ErrorCodeValidationFailed)
	expectError(t, api.do(t, http.MethodPost, "/dashboards/ops/compose", `{"query_string":42}`),
		http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestCompose_ResolutionFailure(t *testing.T) {
	api := newTestAPI(t)
	api.terms.err = errors.New("index unavailable")
	api.do(t, http.MethodPatch, "/dashboards/ops/queries/0", `{"type":"topN"}`)

	rr := api.do(t, http.MethodPost, "/dashboards/ops/compose", "")
	expectError(t, rr, http.StatusBadGateway, ErrorCodeResolutionFailed)
}

func TestResolve(t *testing.T) {
	api := newTestAPI(t)
	api.terms.terms = []facet.Term{{Value: "web", Count: 4}}
	api.do(t, http.MethodPatch, "/dashboards/ops/queries/0", `{"type":"topN","field":"host","query":"*"}`)

	rr := api.do(t, http.MethodPost, "/dashboards/ops/resolve", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	got := decode[resolveResponse](t, rr)
	if got.Generation != 1 || len(got.Items) != 1 || got.Items[0].Query != `host:"web"` || got.Items[0].Alias != "web" {
		t.Errorf("resolve = %+v", got)
	}
}

func TestFacetFilterByQueryID(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/dashboards/ops/queries/0/facet-filter", `{"query_string":["a"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	want := `{"filter":{"query":{"query":{"filtered":{"filter":{"bool":{"must":[` +
		`{"query":{"query":{"query_string":{"query":"a"}}}}]}},"query":{"query_string":{"query":"*"}}}}}}}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("body mismatch\ngot:  %s\nwant: %s", got, want)
	}

	expectError(t, api.do(t, http.MethodPost, "/dashboards/ops/queries/9/facet-filter", ""),
		http.StatusNotFound, ErrorCodeQueryNotFound)
}

func TestFilters_CRUD(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"type":"range","field":"bytes","from":"10","active":true}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rr.Code, rr.Body.String())
	}
	created := decode[map[string]any](t, rr)
	if created["id"] != float64(0) || created["mandate"] != "must" {
		t.Errorf("created = %+v", created)
	}

	rr = api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"id":0,"type":"exists","field":"host","active":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("replace: status %d body %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/dashboards/ops/compose", `{"mode":"none"}`)
	if !strings.Contains(rr.Body.String(), `{"exists":{"field":"host"}}`) {
		t.Errorf("compose ignores dashboard filter: %s", rr.Body.String())
	}

	expectError(t, api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"type":"range","field":"bytes"}`),
		http.StatusBadRequest, ErrorCodeValidationFailed)
	expectError(t, api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"id":4,"type":"exists","field":"x"}`),
		http.StatusNotFound, ErrorCodeFilterNotFound)

	if rr = api.do(t, http.MethodDelete, "/dashboards/ops/filters/0", ""); rr.Code != http.StatusNoContent {
		t.Errorf("remove: status %d", rr.Code)
	}
	if list := decode[listResponse[map[string]any]](t, api.do(t, http.MethodGet, "/dashboards/ops/filters", "")); len(list.Items) != 0 {
		t.Errorf("filters after remove = %+v", list.Items)
	}
}

func TestFilters_ActiveByDefault(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"type":"exists","field":"host"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rr.Code, rr.Body.String())
	}
	if created := decode[map[string]any](t, rr); created["active"] != true {
		t.Errorf("filter posted without active = %+v", created)
	}

	rr = api.do(t, http.MethodPost, "/dashboards/ops/compose", `{"mode":"none"}`)
	if !strings.Contains(rr.Body.String(), `{"exists":{"field":"host"}}`) {
		t.Errorf("compose ignores defaulted filter: %s", rr.Body.String())
	}

	rr = api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"id":0,"type":"exists","field":"host","active":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("replace: status %d body %s", rr.Code, rr.Body.String())
	}
	if replaced := decode[map[string]any](t, rr); replaced["id"] != float64(0) || replaced["active"] != false {
		t.Errorf("replaced = %+v", replaced)
	}
	rr = api.do(t, http.MethodPost, "/dashboards/ops/compose", `{"mode":"none"}`)
	if strings.Contains(rr.Body.String(), `"exists"`) {
		t.Errorf("inactive filter composed: %s", rr.Body.String())
	}
}

func TestFilters_ByType(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"type":"exists","field":"host"}`)
	api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"type":"querystring","query":"level:error"}`)
	api.do(t, http.MethodPost, "/dashboards/ops/filters", `{"type":"exists","field":"user"}`)

	rr := api.do(t, http.MethodGet, "/dashboards/ops/filters?type=exists", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	list := decode[listResponse[map[string]any]](t, rr)
	var fields []any
	for _, f := range list.Items {
		fields = append(fields, f["field"])
	}
	if diff := cmp.Diff([]any{"host", "user"}, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	expectError(t, api.do(t, http.MethodGet, "/dashboards/ops/filters?type=geo", ""),
		http.StatusBadRequest, ErrorCodeValidationFailed)
}

func TestQueries_FindByText(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/dashboards/ops/queries", `{"query":"status:500"}`)

	rr := api.do(t, http.MethodGet, "/dashboards/ops/queries?text=status:500", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	list := decode[listResponse[map[string]any]](t, rr)
	if len(list.Items) != 1 || list.Items[0]["id"] != float64(1) {
		t.Errorf("items = %+v", list.Items)
	}

	list = decode[listResponse[map[string]any]](t, api.do(t, http.MethodGet, "/dashboards/ops/queries?text=missing", ""))
	if len(list.Items) != 0 {
		t.Errorf("unmatched text returned %+v", list.Items)
	}
}

func TestDashboards_ListAndDelete(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/dashboards/ops/queries", `{}`)

	list := decode[listResponse[string]](t, api.do(t, http.MethodGet, "/dashboards", ""))
	if diff := cmp.Diff([]string{"ops"}, list.Items); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	if rr := api.do(t, http.MethodDelete, "/dashboards/ops", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rr.Code)
	}
	list = decode[listResponse[string]](t, api.do(t, http.MethodGet, "/dashboards", ""))
	if len(list.Items) != 0 {
		t.Errorf("dashboards after delete = %v", list.Items)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		ping   error
		status int
	}{
		{"healthy", nil, http.StatusOK},
		{"db down", errors.New("refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(nil, healthuc.New(stubPinger{err: tt.ping}, nil, ""), nil)
			r := chi.NewRouter()
			srv.Routes(r)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			body := decode[healthResponse](t, rr)
			if body.Version.Version == "" || body.Checks["database"] == "" {
				t.Errorf("health body = %+v", body)
			}
		})
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		raw     string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"3", []int{3}, false},
		{"1, 2,5", []int{1, 2, 5}, false},
		{"1,,2", nil, true},
		{"a", nil, true},
	}

	for _, tt := range tests {
		got, err := parseIDList(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIDList(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseIDList(%q) mismatch (-want +got):\n%s", tt.raw, diff)
		}
	}
}
