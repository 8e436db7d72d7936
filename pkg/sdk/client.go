package facetdash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/facetdash/internal/db"
	dbRedis "github.com/kailas-cloud/facetdash/internal/db/redis"
	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/entry"
	dashboardrepo "github.com/kailas-cloud/facetdash/internal/repository/dashboard"
	termsrepo "github.com/kailas-cloud/facetdash/internal/repository/terms"
	"github.com/kailas-cloud/facetdash/internal/usecase/compose"
	dashboarduc "github.com/kailas-cloud/facetdash/internal/usecase/dashboard"
	healthuc "github.com/kailas-cloud/facetdash/internal/usecase/health"
	"github.com/kailas-cloud/facetdash/internal/usecase/resolve"
)

const defaultReadinessTimeout = 10 * time.Second

// dashboardUseCase is the internal interface substituted in tests.
type dashboardUseCase interface {
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error

	Queries(ctx context.Context, name string) ([]query.Query, error)
	FindQuery(ctx context.Context, name, text string) (query.Query, error)
	AddQuery(ctx context.Context, name string, spec query.Spec) (query.Query, error)
	UpdateQuery(ctx context.Context, name string, id int, spec query.Spec) (query.Query, error)
	RemoveQuery(ctx context.Context, name string, id int) error
	Select(ctx context.Context, name string, sel mode.Selection) ([]int, error)
	Resolve(ctx context.Context, name string) ([]query.Resolved, uint64, error)

	Compose(ctx context.Context, name string, req compose.Request) (dashboarduc.Composition, error)
	FacetFilter(ctx context.Context, name string, req compose.Request) (clause.Filter, error)
	FacetQuery(ctx context.Context, name string, req compose.Request) (clause.Query, error)
	PanelQuery(ctx context.Context, name string, req compose.Request) (clause.Query, error)
	FacetFilterByQueryID(ctx context.Context, name string, id int, adHoc []entry.Entry) (clause.Filter, error)

	Filters(ctx context.Context, name string) ([]filterset.Filter, error)
	FiltersByType(ctx context.Context, name string, t filterset.Type) ([]filterset.Filter, error)
	SetFilter(ctx context.Context, name string, id *int, f filterset.Filter) (filterset.Filter, error)
	RemoveFilter(ctx context.Context, name string, id int) error
}

// Client is the facetdash SDK entry point.
type Client struct {
	store     db.Store
	dashSvc   dashboardUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a facetdash Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("facetdash: database address required (use WithRedis or WithCluster)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("facetdash: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("facetdash: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	prefix := cfg.keyPrefix
	if prefix == "" {
		prefix = dashboardrepo.DefaultPrefix
	}

	var terms resolve.TermsSource
	if cfg.searchIndex != "" {
		terms = termsrepo.New(store, cfg.searchIndex)
	}

	dashSvc := dashboarduc.New(dashboardrepo.New(store, prefix), terms, nil).
		WithResolveTimeout(cfg.resolveTimeout)

	return &Client{
		store:     store,
		dashSvc:   dashSvc,
		healthSvc: healthuc.New(store, store, cfg.searchIndex),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Dashboards lists the stored dashboard names.
func (c *Client) Dashboards(ctx context.Context) (names []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("dashboards.list", "", start, err) }()

	names, err = c.dashSvc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	return names, nil
}

// DeleteDashboard removes a stored dashboard.
func (c *Client) DeleteDashboard(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("dashboards.delete", name, start, err) }()

	if err = c.dashSvc.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete dashboard %s: %w", name, err)
	}
	return nil
}

// Dashboard returns the service for one dashboard. The dashboard is created
// on its first mutation.
func (c *Client) Dashboard(name string) *DashboardService {
	return &DashboardService{name: name, svc: c.dashSvc, obs: c.obs}
}
