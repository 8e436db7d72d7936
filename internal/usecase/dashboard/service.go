// Package dashboard serves per-dashboard query registries, filters and composition.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdash/internal/domain"
	domdash "github.com/kailas-cloud/facetdash/internal/domain/dashboard"
	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
	"github.com/kailas-cloud/facetdash/internal/domain/search/entry"
	"github.com/kailas-cloud/facetdash/internal/logger"
	"github.com/kailas-cloud/facetdash/internal/metrics"
	"github.com/kailas-cloud/facetdash/internal/usecase/compose"
	"github.com/kailas-cloud/facetdash/internal/usecase/resolve"
)

const defaultResolveTimeout = 10 * time.Second

// Service maps dashboard names to sessions. Sessions are loaded from the
// repository on first use and written back after every mutation.
type Service struct {
	repo           Repository
	terms          resolve.TermsSource
	logger         *zap.Logger
	resolveTimeout time.Duration
	now            func() time.Time

	mu        sync.Mutex
	sessions  map[string]*session
	evictions uint64
}

// New creates a dashboard service. terms may be nil; topN queries then fail to resolve.
func New(repo Repository, terms resolve.TermsSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:           repo,
		terms:          terms,
		logger:         logger,
		resolveTimeout: defaultResolveTimeout,
		now:            time.Now,
		sessions:       make(map[string]*session),
	}
}

// WithResolveTimeout bounds each resolution run.
func (s *Service) WithResolveTimeout(d time.Duration) *Service {
	if d > 0 {
		s.resolveTimeout = d
	}
	return s
}

// Composition is a composed pair tagged with the resolution generation it used.
type Composition struct {
	compose.Parts
	Generation uint64
}

// --- Dashboards ---

// List returns the names of stored dashboards.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	return names, nil
}

// Delete removes a dashboard and drops its session.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete dashboard: %w", err)
	}
	s.evict(name)
	return nil
}

// --- Queries ---

// Queries lists the registry in order.
func (s *Service) Queries(ctx context.Context, name string) ([]query.Query, error) {
	var out []query.Query
	err := s.read(ctx, name, func(ss *session) error {
		out = ss.queries.List()
		return nil
	})
	return out, err
}

// FindQuery returns the first query, in registry order, whose text equals text.
func (s *Service) FindQuery(ctx context.Context, name, text string) (query.Query, error) {
	var out query.Query
	err := s.read(ctx, name, func(ss *session) error {
		q, ok := ss.queries.FindByText(text)
		if !ok {
			return fmt.Errorf("no query with text %q: %w", text, domain.ErrQueryNotFound)
		}
		out = q
		return nil
	})
	return out, err
}

// AddQuery inserts a new query. spec.ID is ignored.
func (s *Service) AddQuery(ctx context.Context, name string, spec query.Spec) (query.Query, error) {
	if err := validateSpec(spec); err != nil {
		return query.Query{}, err
	}
	spec.ID = nil

	var out query.Query
	err := s.mutate(ctx, name, func(ss *session) error {
		id, _ := ss.queries.Add(spec)
		out, _ = ss.queries.Get(id)
		return nil
	})
	return out, err
}

// UpdateQuery merges the set fields of spec into query id.
func (s *Service) UpdateQuery(ctx context.Context, name string, id int, spec query.Spec) (query.Query, error) {
	if err := validateSpec(spec); err != nil {
		return query.Query{}, err
	}
	spec.ID = &id

	var out query.Query
	err := s.mutate(ctx, name, func(ss *session) error {
		if _, ok := ss.queries.Add(spec); !ok {
			return fmt.Errorf("query %d: %w", id, domain.ErrQueryNotFound)
		}
		out, _ = ss.queries.Get(id)
		return nil
	})
	return out, err
}

// RemoveQuery deletes query id.
func (s *Service) RemoveQuery(ctx context.Context, name string, id int) error {
	return s.mutate(ctx, name, func(ss *session) error {
		if !ss.queries.Remove(id) {
			return fmt.Errorf("query %d: %w", id, domain.ErrQueryNotFound)
		}
		return nil
	})
}

// Select returns the registry ids a panel selection picks.
func (s *Service) Select(ctx context.Context, name string, sel mode.Selection) ([]int, error) {
	var out []int
	err := s.read(ctx, name, func(ss *session) error {
		out = ss.queries.SelectByMode(sel)
		return nil
	})
	return out, err
}

// Resolve expands the registry and returns the resolved set with its generation.
func (s *Service) Resolve(ctx context.Context, name string) ([]query.Resolved, uint64, error) {
	var (
		out []query.Resolved
		gen uint64
	)
	err := s.read(ctx, name, func(ss *session) error {
		var err error
		if out, err = s.resolve(ctx, ss); err != nil {
			return err
		}
		gen = ss.resolver.Generation()
		return nil
	})
	return out, gen, err
}

// --- Composition ---

// Compose builds the query/filter pair for a panel request.
func (s *Service) Compose(ctx context.Context, name string, req compose.Request) (Composition, error) {
	var out Composition
	err := s.resolved(ctx, name, func(ss *session) {
		out = Composition{Parts: ss.engine.Compose(req), Generation: ss.resolver.Generation()}
	})
	return out, err
}

// FacetFilter composes the request as a single filter.
func (s *Service) FacetFilter(ctx context.Context, name string, req compose.Request) (clause.Filter, error) {
	var out clause.Filter
	err := s.resolved(ctx, name, func(ss *session) { out = ss.engine.FacetFilter(req) })
	return out, err
}

// FacetQuery composes the request as a filtered query.
func (s *Service) FacetQuery(ctx context.Context, name string, req compose.Request) (clause.Query, error) {
	var out clause.Query
	err := s.resolved(ctx, name, func(ss *session) { out = ss.engine.FacetQuery(req) })
	return out, err
}

// PanelQuery composes the request as a filtered query that keeps highlight scoring.
func (s *Service) PanelQuery(ctx context.Context, name string, req compose.Request) (clause.Query, error) {
	var out clause.Query
	err := s.resolved(ctx, name, func(ss *session) { out = ss.engine.PanelQuery(req) })
	return out, err
}

// FacetFilterByQueryID builds the filter for one resolved query id.
func (s *Service) FacetFilterByQueryID(ctx context.Context, name string, id int, adHoc []entry.Entry) (clause.Filter, error) {
	var (
		out clause.Filter
		ok  bool
	)
	if err := s.resolved(ctx, name, func(ss *session) { out, ok = ss.engine.FacetFilterByQueryID(id, adHoc) }); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("resolved query %d: %w", id, domain.ErrQueryNotFound)
	}
	return out, nil
}

// --- Filters ---

// Filters lists the dashboard filters in order.
func (s *Service) Filters(ctx context.Context, name string) ([]filterset.Filter, error) {
	var out []filterset.Filter
	err := s.read(ctx, name, func(ss *session) error {
		out = ss.filters.List()
		return nil
	})
	return out, err
}

// FiltersByType lists the dashboard filters of type t in order.
func (s *Service) FiltersByType(ctx context.Context, name string, t filterset.Type) ([]filterset.Filter, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("unknown filter type %q: %w", t, domain.ErrInvalidFilter)
	}
	var out []filterset.Filter
	err := s.read(ctx, name, func(ss *session) error {
		out = ss.filters.ByType(t)
		return nil
	})
	return out, err
}

// SetFilter inserts f, or replaces filter *id when id is set.
func (s *Service) SetFilter(ctx context.Context, name string, id *int, f filterset.Filter) (filterset.Filter, error) {
	var out filterset.Filter
	err := s.mutate(ctx, name, func(ss *session) error {
		newID, err := ss.filters.Set(id, f)
		if err != nil {
			return err
		}
		out, _ = ss.filters.Get(newID)
		return nil
	})
	return out, err
}

// RemoveFilter deletes filter id.
func (s *Service) RemoveFilter(ctx context.Context, name string, id int) error {
	return s.mutate(ctx, name, func(ss *session) error {
		if !ss.filters.Remove(id) {
			return fmt.Errorf("filter %d: %w", id, domain.ErrFilterNotFound)
		}
		return nil
	})
}

// --- Session plumbing ---

// read runs fn under the session lock. A session evicted while the caller
// waited for its lock is dropped and the current one is fetched instead.
func (s *Service) read(ctx context.Context, name string, fn func(ss *session) error) error {
	for {
		ss, err := s.session(ctx, name)
		if err != nil {
			return err
		}
		if ran, err := s.runLocked(name, ss, fn); ran {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // context errors are returned as is
		}
	}
}

// runLocked runs fn under ss.mu unless ss was evicted first.
func (s *Service) runLocked(name string, ss *session, fn func(ss *session) error) (bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !s.live(name, ss) {
		return false, nil
	}
	return true, fn(ss)
}

// live reports whether ss is still the cached session for name.
func (s *Service) live(name string, ss *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[name] == ss
}

// resolved runs fn after bringing the resolved set up to date.
func (s *Service) resolved(ctx context.Context, name string, fn func(ss *session)) error {
	return s.read(ctx, name, func(ss *session) error {
		if ss.resolver.Stale() {
			if _, err := s.resolve(ctx, ss); err != nil {
				return err
			}
		}
		fn(ss)
		return nil
	})
}

// mutate runs fn, invalidates resolution and persists the session. A failed
// write evicts the session so the next call reloads the durable copy.
func (s *Service) mutate(ctx context.Context, name string, fn func(ss *session) error) error {
	return s.read(ctx, name, func(ss *session) error {
		if err := fn(ss); err != nil {
			return err
		}
		ss.resolver.Invalidate()
		ss.revision++
		ss.updatedAt = s.now().UnixMilli()

		if err := s.repo.Save(ctx, ss.document()); err != nil {
			metrics.DashboardSaves.WithLabelValues("error").Inc()
			s.evict(name)
			return fmt.Errorf("save dashboard: %w", err)
		}
		metrics.DashboardSaves.WithLabelValues("ok").Inc()
		return nil
	})
}

func (s *Service) resolve(ctx context.Context, ss *session) ([]query.Resolved, error) {
	ctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	res, err := ss.resolver.Resolve(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Dashboard resolution failed", zapDashboard(ss.name), zap.Error(err))
		return nil, fmt.Errorf("resolve dashboard %s: %w", ss.name, err)
	}
	return res, nil
}

// session returns the cached session for name, loading it on first use.
// A dashboard that was never saved starts from an empty document. The load
// runs outside s.mu; a load that raced an eviction is discarded and retried.
func (s *Service) session(ctx context.Context, name string) (*session, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	for {
		s.mu.Lock()
		ss, ok := s.sessions[name]
		epoch := s.evictions
		s.mu.Unlock()
		if ok {
			return ss, nil
		}

		doc, err := s.repo.Load(ctx, name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			doc = domdash.New(name)
		case err != nil:
			return nil, fmt.Errorf("load dashboard: %w", err)
		}

		if ss, ok := s.install(name, doc, epoch); ok {
			return ss, nil
		}
	}
}

// install caches a session for doc unless another caller already did, in
// which case that session wins. It fails when an eviction happened since
// epoch, because doc may predate the durable copy.
func (s *Service) install(name string, doc domdash.Document, epoch uint64) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ss, ok := s.sessions[name]; ok {
		return ss, true
	}
	if s.evictions != epoch {
		return nil, false
	}

	ss := s.newSession(doc)
	s.sessions[name] = ss
	metrics.SessionsLoaded.Set(float64(len(s.sessions)))
	s.logger.Debug("Dashboard session loaded",
		zapDashboard(name),
		zap.Int("queries", len(doc.Queries.IDs)),
		zap.Int("filters", len(doc.Filters.IDs)),
		zap.Int("revision", doc.Revision),
	)
	return ss, true
}

func (s *Service) evict(name string) {
	s.mu.Lock()
	delete(s.sessions, name)
	s.evictions++
	metrics.SessionsLoaded.Set(float64(len(s.sessions)))
	s.mu.Unlock()
}

func validateName(name string) error {
	if err := domdash.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDashboard, err)
	}
	return nil
}

func validateSpec(spec query.Spec) error {
	switch {
	case spec.Type != nil && !spec.Type.IsValid():
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidQuery, *spec.Type)
	case spec.Union != nil && !spec.Union.IsValid():
		return fmt.Errorf("%w: unknown union %q", domain.ErrInvalidQuery, *spec.Union)
	case spec.Size != nil && *spec.Size <= 0:
		return fmt.Errorf("%w: size must be positive", domain.ErrInvalidQuery)
	}
	return nil
}

func zapDashboard(name string) zap.Field {
	return zap.String("dashboard", name)
}
